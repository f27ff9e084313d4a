package enrichment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aws-console-lab/internal/domain"
	"aws-console-lab/internal/enrichment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestGenerateFeedbackWithoutKeyIsNoOp(t *testing.T) {
	client := enrichment.NewOpenAIClient("", "", "", time.Second)

	fb, err := client.GenerateFeedback(context.Background(), &domain.Lab{ID: "lab-1"}, nil)
	require.NoError(t, err)
	assert.Nil(t, fb)
}

func TestGenerateFeedbackParsesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		chatReply(t, w, `{"strengths": ["Completed the launch wizard."], "improvements": ["Review instance types."]}`)
	}))
	defer server.Close()

	client := enrichment.NewOpenAIClient(server.URL, "test-key", "", time.Second)
	fb, err := client.GenerateFeedback(context.Background(), &domain.Lab{
		ID:    "lab-ec2-launch",
		Title: "Launch your first EC2 instance",
	}, &domain.UserProgress{CompletedSteps: datatypes.NewJSONSlice([]string{"ec2-1-open-console"})})
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, []string{"Completed the launch wizard."}, fb.Strengths)
	assert.Equal(t, []string{"Review instance types."}, fb.Improvements)
}

func TestGenerateFeedbackStripsMarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "```json\n{\"strengths\": [\"ok\"], \"improvements\": []}\n```")
	}))
	defer server.Close()

	client := enrichment.NewOpenAIClient(server.URL, "test-key", "", time.Second)
	fb, err := client.GenerateFeedback(context.Background(), &domain.Lab{ID: "lab-1"}, nil)
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, []string{"ok"}, fb.Strengths)
}

func TestGenerateFeedbackAPIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := enrichment.NewOpenAIClient(server.URL, "test-key", "", time.Second)
	_, err := client.GenerateFeedback(context.Background(), &domain.Lab{ID: "lab-1"}, nil)
	assert.Error(t, err)
}

func TestGenerateFeedbackInvalidContentIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "not json at all")
	}))
	defer server.Close()

	client := enrichment.NewOpenAIClient(server.URL, "test-key", "", time.Second)
	_, err := client.GenerateFeedback(context.Background(), &domain.Lab{ID: "lab-1"}, nil)
	assert.Error(t, err)
}
