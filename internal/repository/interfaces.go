package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"

	"livepoll/internal/domain"
)

// RoundRepository defines the interface for archiving resolved rounds
type RoundRepository interface {
	// SaveRound stores a resolved round. Saving the same round twice is a no-op.
	SaveRound(ctx context.Context, entry domain.HistoryEntry) error
}

// Execer is the subset of pgxpool.Pool the repositories write through
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Round RoundRepository
}
