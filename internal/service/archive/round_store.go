package archive

import (
	"context"

	"livepoll/internal/domain"
	"livepoll/internal/repository"
)

// RoundStore archives resolved rounds through a repository
type RoundStore struct {
	repo repository.RoundRepository
}

func NewRoundStore(repo repository.RoundRepository) *RoundStore {
	return &RoundStore{repo: repo}
}

func (s *RoundStore) Name() string { return "postgres" }

func (s *RoundStore) Store(ctx context.Context, entry domain.HistoryEntry) error {
	return s.repo.SaveRound(ctx, entry)
}
