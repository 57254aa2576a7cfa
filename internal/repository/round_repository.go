package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"livepoll/internal/domain"
)

const insertRoundQuery = `
	INSERT INTO poll_rounds (
		session_id, question_id, question_text, options, time_limit_seconds,
		started_at, resolved_at, reason, results
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (session_id, question_id) DO NOTHING
`

type PostgresRoundRepository struct {
	db        Execer
	sessionID uuid.UUID
}

// NewRoundRepository creates a write-only archive for one process' session.
// Question ids restart with every process, so rows are keyed by sessionID too.
func NewRoundRepository(db Execer, sessionID uuid.UUID) *PostgresRoundRepository {
	return &PostgresRoundRepository{db: db, sessionID: sessionID}
}

// SaveRound inserts a resolved round
func (r *PostgresRoundRepository) SaveRound(ctx context.Context, entry domain.HistoryEntry) error {
	options, err := json.Marshal(entry.Question.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	_, err = r.db.Exec(ctx, insertRoundQuery,
		r.sessionID,
		entry.Question.ID,
		entry.Question.Text,
		options,
		entry.Question.TimeLimitSeconds,
		entry.Question.StartedAt,
		entry.ResolvedAt,
		string(entry.Reason),
		results,
	)
	if err != nil {
		return fmt.Errorf("failed to save round %d: %w", entry.Question.ID, err)
	}
	return nil
}

// SessionID returns the id rows are written under
func (r *PostgresRoundRepository) SessionID() uuid.UUID {
	return r.sessionID
}
