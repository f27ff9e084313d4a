package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"aws-console-lab/internal/api"
	"aws-console-lab/internal/repository"
	"aws-console-lab/internal/seed"
	"aws-console-lab/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	repo, err := repository.NewGormRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, seed.Run(context.Background(), repo))

	sim := service.NewSimulationService(repo, nil, nil)
	handler := api.NewHandler(sim, service.NewHealthService(repo))

	e := echo.New()
	api.RegisterRoutes(e, handler)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStartLabEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/simulation/start",
		`{"userId": "user-1", "labId": "lab-ec2-launch"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["lab"])
	assert.NotNil(t, body["progress"])
}

func TestStartLabUnknownLabIs404(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/simulation/start",
		`{"userId": "user-1", "labId": "lab-fantasma"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartLabMissingFieldsIs400(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/simulation/start", `{"userId": "user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateRejectionIsStill200(t *testing.T) {
	e := newTestServer(t)

	// Step fora de ordem: rejeição de negócio, não erro de transporte
	rec := doJSON(e, http.MethodPost, "/simulation/validate",
		`{"userId": "user-1", "labId": "lab-ec2-launch", "stepId": "ec2-2-launch-wizard", "action": "CLICK_LAUNCH_INSTANCE", "payload": {}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Please complete step 1")
}

func TestValidateHappyPath(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/simulation/validate",
		`{"userId": "user-1", "labId": "lab-ec2-launch", "stepId": "ec2-1-open-console", "action": "NAVIGATE", "payload": {"url": "/ec2"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestListResourcesRequiresUserID(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/simulation/resources", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitAndFetchSubmission(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/simulation/submit",
		`{"userId": "user-1", "labId": "lab-ec2-launch"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success    bool `json:"success"`
		Submission struct {
			ID    string `json:"id"`
			Score int    `json:"score"`
		} `json:"submission"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 0, body.Submission.Score)
	require.NotEmpty(t, body.Submission.ID)

	fetched := doJSON(e, http.MethodGet, "/simulation/submission/"+body.Submission.ID, "")
	assert.Equal(t, http.StatusOK, fetched.Code)

	missing := doJSON(e, http.MethodGet, "/simulation/submission/sub-fantasma", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListLabsEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/simulation/labs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var labs []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labs))
	assert.Len(t, labs, 3)
}
