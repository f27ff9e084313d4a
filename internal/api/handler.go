package api

import (
	"errors"
	"log"
	"net/http"

	"aws-console-lab/internal/service"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	sim           *service.SimulationService
	healthService *service.HealthService
}

func NewHandler(sim *service.SimulationService, healthService *service.HealthService) *Handler {
	return &Handler{
		sim:           sim,
		healthService: healthService,
	}
}

type StartLabRequest struct {
	UserID string `json:"userId"`
	LabID  string `json:"labId"`
}

type SubmitLabRequest struct {
	UserID string `json:"userId"`
	LabID  string `json:"labId"`
}

// HandleStartLab faz POST /simulation/start: reset destrutivo + seed.
func (h *Handler) HandleStartLab(c echo.Context) error {
	var req StartLabRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Payload inválido"})
	}
	if req.UserID == "" || req.LabID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId e labId são obrigatórios"})
	}

	result, err := h.sim.StartLab(c.Request().Context(), req.UserID, req.LabID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"lab":       result.Lab,
		"resources": result.Resources,
		"progress":  result.Progress,
	})
}

// HandleListResources faz GET /simulation/resources?userId&type&labId,
// com o overlay de boot das instâncias EC2 já aplicado.
func (h *Handler) HandleListResources(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId é obrigatório"})
	}

	resources, err := h.sim.ListResources(c.Request().Context(), userID, c.QueryParam("labId"), c.QueryParam("type"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, resources)
}

// HandleValidateAction faz POST /simulation/validate. Rejeições de
// negócio voltam com HTTP 200 e success=false — não são erros de
// transporte.
func (h *Handler) HandleValidateAction(c echo.Context) error {
	var req service.ActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Payload inválido"})
	}
	if req.UserID == "" || req.LabID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId e labId são obrigatórios"})
	}

	result, err := h.sim.ValidateAction(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleSubmitLab faz POST /simulation/submit.
func (h *Handler) HandleSubmitLab(c echo.Context) error {
	var req SubmitLabRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Payload inválido"})
	}
	if req.UserID == "" || req.LabID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId e labId são obrigatórios"})
	}

	submission, err := h.sim.SubmitLab(c.Request().Context(), req.UserID, req.LabID)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"submission": submission,
	})
}

// HandleListSubmissions faz GET /simulation/submission?userId&labId.
func (h *Handler) HandleListSubmissions(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId é obrigatório"})
	}

	subs, err := h.sim.ListSubmissions(c.Request().Context(), userID, c.QueryParam("labId"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, subs)
}

// HandleGetSubmission faz GET /simulation/submission/:submissionID.
func (h *Handler) HandleGetSubmission(c echo.Context) error {
	sub, err := h.sim.GetSubmission(c.Request().Context(), c.Param("submissionID"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

// HandleGetProgress faz GET /simulation/progress?userId&labId? com a
// vista agregada (progresso + recursos + histórico + submissões).
func (h *Handler) HandleGetProgress(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId é obrigatório"})
	}

	overview, err := h.sim.GetProgressOverview(c.Request().Context(), userID, c.QueryParam("labId"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *Handler) HandleListLabs(c echo.Context) error {
	labs, err := h.sim.ListLabs(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, labs)
}

func (h *Handler) HandleGetLab(c echo.Context) error {
	lab, err := h.sim.GetLab(c.Request().Context(), c.Param("labID"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, lab)
}

// mapError aplica a taxonomia: not-found estruturado, resto é 500 com
// a mensagem subjacente logada.
func (h *Handler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrLabNotFound) || errors.Is(err, service.ErrSubmissionNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	log.Printf("ERRO [Handler]: %v", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
