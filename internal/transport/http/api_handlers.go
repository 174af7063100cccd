package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// APIHandlers serves the read-only HTTP endpoints.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// HealthResponse represents the liveness response body.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	ActiveUsers int    `json:"active_users"`
}

// UsersResponse represents the presence snapshot response body.
type UsersResponse struct {
	Users []proto.UserStatus `json:"users"`
}

// Health reports liveness with connection and session counts.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	stats := h.hub.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: stats.Connections,
		ActiveUsers: stats.ActiveUsers,
	})
}

// Users returns the current presence snapshot.
// GET /api/users
func (h *APIHandlers) Users(c *gin.Context) {
	c.JSON(http.StatusOK, UsersResponse{Users: userStatuses(h.hub.Presence())})
}
