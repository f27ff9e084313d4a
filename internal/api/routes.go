package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes regista todas as rotas da API. As rotas de simulação
// ficam diretamente sob /simulation por compatibilidade com a consola.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/simulation")

	// Ciclo de vida de um lab
	g.POST("/start", h.HandleStartLab)
	g.POST("/validate", h.HandleValidateAction)
	g.POST("/submit", h.HandleSubmitLab)

	// Consultas
	g.GET("/resources", h.HandleListResources)
	g.GET("/progress", h.HandleGetProgress)
	g.GET("/submission", h.HandleListSubmissions)
	g.GET("/submission/:submissionID", h.HandleGetSubmission)

	// Catálogo de labs
	g.GET("/labs", h.HandleListLabs)
	g.GET("/labs/:labID", h.HandleGetLab)

	// Snapshots de progresso ao vivo (WebSocket)
	g.GET("/watch", h.HandlerProgressWatch)

	e.GET("/health", h.HandleHealthCheck)
}
