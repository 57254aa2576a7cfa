package container

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"livepoll/internal/config"
	"livepoll/internal/repository"
	"livepoll/internal/service/archive"
	"livepoll/internal/service/poll"
	"livepoll/internal/worker"
	"livepoll/pkg/database"
	"livepoll/pkg/logger"
	"livepoll/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	SessionID   uuid.UUID
	RedisClient *redis.Client
	Database    *database.PostgresDB
	Broadcaster *poll.Broadcaster
	Coordinator *poll.Coordinator
	RoundWorker *worker.RoundWorker
}

// New creates a new dependency injection container. Redis and Postgres are
// optional: a failed connection is logged and the session runs without it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg == nil || log == nil {
		return nil, errors.New("config and logger are required")
	}

	c := &Container{
		Config:    cfg,
		Logger:    log,
		SessionID: uuid.New(),
	}

	var sinks []worker.RoundSink

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Component("redis"))
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without result publishing")
		} else {
			c.RedisClient = client
			sinks = append(sinks, archive.NewRedisPublisher(client, c.SessionID.String(), cfg.LatestResultsTTL, log.Component("publisher")))
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Info("Redis URL not configured, proceeding without result publishing")
	}

	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to database, proceeding without round archive")
		} else {
			c.Database = db
			sinks = append(sinks, archive.NewRoundStore(repository.NewRoundRepository(db.Pool, c.SessionID)))
			log.Info("Database connection established")
		}
	} else {
		log.Info("Database URL not configured, proceeding without round archive")
	}

	c.RoundWorker = worker.NewRoundWorker(cfg.RoundQueueSize, log.Component("round_worker"), sinks...)
	c.Broadcaster = poll.NewBroadcaster(log.Component("broadcast"))
	c.Coordinator = poll.NewCoordinator(c.Broadcaster,
		poll.WithLogger(log.Component("coordinator")),
		poll.WithObserver(c.RoundWorker),
		poll.WithRetainDepartedVotes(cfg.RetainDepartedVotes),
	)

	log.WithField("session_id", c.SessionID.String()).Info("Poll session created")
	return c, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// HasDatabase returns true if the round archive is available
func (c *Container) HasDatabase() bool {
	return c.Database != nil
}

// CloseSessions closes every WebSocket connection and stops the coordinator.
// http.Server.Shutdown leaves hijacked connections open, so this has to run
// before the round worker stops.
func (c *Container) CloseSessions() {
	c.Broadcaster.CloseAll()
	c.Coordinator.Close()
}

// Close closes open sessions and releases external clients. The round worker
// must already be stopped so queued rounds are flushed first.
func (c *Container) Close() error {
	c.CloseSessions()

	var errs []error
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Database != nil {
		c.Database.Close()
	}
	return errors.Join(errs...)
}
