package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/planit-app/ranking-backend/internal/config"
	"github.com/planit-app/ranking-backend/internal/models"
	ws "github.com/planit-app/ranking-backend/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		// In production, check against allowed origins
		return true
	},
}

type WebSocketHandler struct {
	hub *ws.Hub
}

func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket upgrades the connection and registers the subscriber.
// The initial interest set comes from the periods query parameter, e.g.
// /ws?periods=WEEKLY,MONTHLY; omitted means all periods. The hub pushes
// one INITIAL_RANKING per watched period immediately after registration.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	periods := parsePeriodsParam(c.Query("periods"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	bufferSize := 256
	if config.AppCfg != nil {
		bufferSize = config.AppCfg.App.ClientBufferSize
	}

	client := ws.NewClient(h.hub, conn, bufferSize, periods)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// GetConnectionStatus returns subscriber accounting for ops visibility.
func (h *WebSocketHandler) GetConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.hub.ClientCount(),
		"status":           h.hub.Status(),
	})
}

func parsePeriodsParam(raw string) []models.PeriodType {
	if raw == "" {
		return models.AllPeriodTypes()
	}
	var periods []models.PeriodType
	for _, part := range strings.Split(raw, ",") {
		pt, err := models.ParsePeriodType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		periods = append(periods, pt)
	}
	return periods
}
