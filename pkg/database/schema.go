package database

// CreateStatements creates the round archive
var CreateStatements = []string{
	`CREATE TABLE IF NOT EXISTS poll_rounds (
		id BIGSERIAL PRIMARY KEY,
		session_id UUID NOT NULL,
		question_id BIGINT NOT NULL,
		question_text TEXT NOT NULL,
		options JSONB NOT NULL,
		time_limit_seconds INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		resolved_at TIMESTAMPTZ NOT NULL,
		reason VARCHAR(32) NOT NULL,
		results JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (session_id, question_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_poll_rounds_resolved_at ON poll_rounds (resolved_at DESC)`,
}

// DropStatements removes the round archive
var DropStatements = []string{
	`DROP TABLE IF EXISTS poll_rounds CASCADE`,
}
