package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"livepoll/internal/domain"
	"livepoll/pkg/redis"
)

// RoundMessage is the JSON published for each resolved round
type RoundMessage struct {
	SessionID string `json:"session_id"`
	domain.HistoryEntry
}

// RedisPublisher announces resolved rounds on a Redis channel and keeps the
// latest one under a key for late readers.
type RedisPublisher struct {
	redis     *redis.Client
	sessionID string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, sessionID string, ttl time.Duration, logger *zap.Logger) *RedisPublisher {
	if ttl <= 0 {
		ttl = redis.TTLLatestResults
	}
	return &RedisPublisher{redis: client, sessionID: sessionID, ttl: ttl, logger: logger}
}

func (p *RedisPublisher) Name() string { return "redis" }

// Store writes the latest-round key, then publishes
func (p *RedisPublisher) Store(ctx context.Context, entry domain.HistoryEntry) error {
	payload, err := json.Marshal(RoundMessage{SessionID: p.sessionID, HistoryEntry: entry})
	if err != nil {
		return fmt.Errorf("failed to encode round: %w", err)
	}

	if err := p.redis.Set(ctx, p.redis.KeyBuilder.KeyLatestResults(), payload, p.ttl); err != nil {
		return fmt.Errorf("failed to store latest round: %w", err)
	}

	receivers, err := p.redis.Publish(ctx, p.redis.KeyBuilder.KeyResultsChannel(), payload)
	if err != nil {
		return fmt.Errorf("failed to publish round: %w", err)
	}

	p.logger.Debug("Published resolved round",
		zap.Int64("question_id", entry.Question.ID),
		zap.Int64("receivers", receivers))
	return nil
}
