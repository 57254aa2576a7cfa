package container

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livepoll/internal/config"
	"livepoll/pkg/logger"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		config      *config.Config
		expectRedis bool
	}{
		{
			name: "Container with Redis configured",
			config: &config.Config{
				Environment:         "test",
				RedisURL:            "redis://" + mr.Addr(),
				RetainDepartedVotes: true,
				RoundQueueSize:      4,
			},
			expectRedis: true,
		},
		{
			name: "Container without Redis configured",
			config: &config.Config{
				Environment:    "test",
				RoundQueueSize: 4,
			},
			expectRedis: false,
		},
		{
			name: "Container with invalid Redis URL",
			config: &config.Config{
				Environment:    "test",
				RedisURL:       "invalid://redis-url",
				RoundQueueSize: 4,
			},
			// Redis client initialization fails but container creation succeeds
			expectRedis: false,
		},
		{
			name: "Container with unreachable database",
			config: &config.Config{
				Environment:    "production",
				DatabaseURL:    "not a url",
				RoundQueueSize: 4,
			},
			expectRedis: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.config, logger.NewNop())
			require.NoError(t, err)
			require.NotNil(t, c)

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.Equal(t, tt.expectRedis, c.GetRedisClient() != nil)
			assert.False(t, c.HasDatabase())
			assert.NotNil(t, c.Coordinator)
			assert.NotNil(t, c.Broadcaster)
			assert.NotNil(t, c.RoundWorker)
			assert.Same(t, tt.config, c.GetConfig())
			assert.NotEmpty(t, c.SessionID.String())

			assert.NoError(t, c.Close())
		})
	}
}

func TestNew_RequiresConfigAndLogger(t *testing.T) {
	_, err := New(context.Background(), nil, logger.NewNop())
	assert.Error(t, err)

	_, err = New(context.Background(), &config.Config{}, nil)
	assert.Error(t, err)
}

func TestNew_ResolvedRoundsReachRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), &config.Config{
		Environment:    "production",
		RedisURL:       "redis://" + mr.Addr(),
		RoundQueueSize: 4,
	}, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go c.RoundWorker.Run(ctx)

	_, err = c.Coordinator.AskQuestion("Red planet?", []string{"Mars", "Venus"}, 10)
	require.NoError(t, err)
	require.NoError(t, c.Coordinator.EndQuestion())

	cancel()
	<-c.RoundWorker.Done()

	latest, err := mr.Get("prod:poll:latest")
	require.NoError(t, err)
	assert.Contains(t, latest, `"reason":"ended"`)
	assert.Contains(t, latest, c.SessionID.String())

	assert.NoError(t, c.Close())
}
