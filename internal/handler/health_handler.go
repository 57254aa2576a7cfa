package handler

import (
	"context"
	"net/http"
	"time"

	"livepoll/internal/container"
	"livepoll/internal/domain"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	SessionID  string            `json:"session_id"`
	Session    SessionHealth     `json:"session"`
	Components map[string]string `json:"components"`
}

// SessionHealth summarizes the live session
type SessionHealth struct {
	State        domain.SessionState `json:"state"`
	Connections  int                 `json:"connections"`
	Presenters   int                 `json:"presenters"`
	Participants int                 `json:"participants"`
	Rounds       int                 `json:"rounds"`
}

// Check handles GET /health. Optional dependencies that fail mark the
// service degraded but never unhealthy.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	logger.Debug("Health check requested")

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    "1.0.0",
		Service:    "livepoll",
		SessionID:  h.container.SessionID.String(),
		Components: map[string]string{},
	}

	check := func(name string, configured bool, ping func(context.Context) error) {
		if !configured {
			response.Components[name] = "disabled"
			return
		}
		if err := ping(ctx); err != nil {
			logger.WithError(err).WithField("component", name).Warn("Health check failed")
			response.Components[name] = "unavailable"
			response.Status = "degraded"
			return
		}
		response.Components[name] = "ok"
	}
	check("redis", h.container.HasRedis(), func(ctx context.Context) error {
		return h.container.RedisClient.Health(ctx)
	})
	check("postgres", h.container.HasDatabase(), func(ctx context.Context) error {
		return h.container.Database.Health(ctx)
	})

	presenters, participants, connections := h.container.Broadcaster.Counts()
	status := h.container.Coordinator.Status()
	response.Session = SessionHealth{
		State:        status.State,
		Connections:  connections,
		Presenters:   presenters,
		Participants: participants,
		Rounds:       status.HistorySize,
	}

	respondJSON(w, http.StatusOK, response)
}
