package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"livepoll/internal/container"
	"livepoll/internal/metrics"
	"livepoll/internal/middleware"
)

// NewRouter configures the HTTP routes for a container
func NewRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()

	metrics.Register()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r := chi.NewRouter()
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)

	healthHandler := NewHealthHandler(c)
	pollHandler := NewPollHandler(c.Coordinator, log.Component("http"))
	socketHandler := NewSocketHandler(c.Coordinator, c.Broadcaster, SocketConfig{
		SendQueueSize: cfg.SendQueueSize,
		RatePerSecond: cfg.IntentRatePerSecond,
		Burst:         cfg.IntentBurst,
		PingInterval:  cfg.PingInterval,
		CheckOrigin:   corsConfig.OriginAllowed,
	}, log.Component("socket"))

	// Long-lived connections stay outside the compression and timeout group
	r.Get("/ws", socketHandler.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Compress(5))
		r.Use(chiMiddleware.Timeout(60 * time.Second))

		r.Get("/health", healthHandler.Check)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		r.Route("/api/poll", func(r chi.Router) {
			r.Get("/status", pollHandler.GetStatus)
			r.Get("/history", pollHandler.GetHistory)
			r.Post("/questions", pollHandler.AskQuestion)
			r.Post("/end", pollHandler.EndQuestion)
			r.Delete("/participants/{participantId}", pollHandler.RemoveParticipant)
		})
	})

	r.NotFound(NotFound)

	return r
}
