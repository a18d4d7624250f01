package service

import (
	"context"
	"fmt"

	"cx-arcade-bot/internal/model"
)

// RankingService handles the leaderboard and creator statistics.
// Both only consider player accounts; the creator is never ranked.
type RankingService struct {
	accounts AccountStore
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(accounts AccountStore) *RankingService {
	return &RankingService{accounts: accounts}
}

// Top retrieves up to limit players by balance, richest first.
func (s *RankingService) Top(ctx context.Context, limit int) ([]*model.Account, error) {
	accounts, err := s.accounts.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return accounts, nil
}

// Stats aggregates totals over all players.
func (s *RankingService) Stats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.accounts.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}
