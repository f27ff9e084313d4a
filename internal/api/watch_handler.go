package api

import (
	"log"
	"net/http"
	"time"

	"aws-console-lab/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

const watchInterval = 2 * time.Second

// WatchMessage é um snapshot de progresso enviado pelo websocket.
type WatchMessage struct {
	Type      string               `json:"type"`
	Progress  *domain.UserProgress `json:"progress"`
	Resources int                  `json:"resources"`
}

// HandlerProgressWatch faz GET /simulation/watch?userId&labId: mantém
// um websocket aberto e empurra snapshots de progresso para a consola,
// evitando polling do frontend.
func (h *Handler) HandlerProgressWatch(c echo.Context) error {
	userID := c.QueryParam("userId")
	labID := c.QueryParam("labId")
	if userID == "" || labID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userId e labId são obrigatórios"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERRO [Watch]: Falha no upgrade do websocket: %v", err)
		return err
	}
	defer ws.Close()
	log.Printf("INFO [Watch]: Cliente WebSocket conectado para %s/%s", userID, labID)

	ctx := c.Request().Context()
	done := make(chan struct{})

	// Loop de escrita (goroutine para não bloquear a leitura do WS)
	go func() {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			progress, err := h.sim.GetProgress(ctx, userID, labID)
			if err != nil {
				log.Printf("AVISO [Watch]: Falha ao buscar progresso: %v", err)
				return
			}
			resources, err := h.sim.ListResources(ctx, userID, labID, "")
			if err != nil {
				log.Printf("AVISO [Watch]: Falha ao buscar recursos: %v", err)
				return
			}

			msg := WatchMessage{Type: "progress", Progress: progress, Resources: len(resources)}
			if err := ws.WriteJSON(msg); err != nil {
				return
			}

			select {
			case <-ticker.C:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// Mantém a conexão viva até o cliente desconectar
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			log.Printf("INFO [Watch]: Cliente desconectado: %v", err)
			break
		}
	}
	close(done)

	return nil
}
