package handler

import (
	"context"
	"fmt"

	"cx-arcade-bot/internal/service"
)

// RankingHandler handles the leaderboard.
type RankingHandler struct {
	rankingService *service.RankingService
	limit          int
}

// NewRankingHandler creates a new RankingHandler showing up to limit players.
func NewRankingHandler(rankingService *service.RankingService, limit int) *RankingHandler {
	if limit <= 0 {
		limit = 5
	}
	return &RankingHandler{
		rankingService: rankingService,
		limit:          limit,
	}
}

// Register binds the ranking commands to d.
func (h *RankingHandler) Register(d *Dispatcher) {
	d.Register("top", h.HandleTop)
}

// HandleTop handles the /top command.
func (h *RankingHandler) HandleTop(ctx context.Context, req *Request) error {
	accounts, err := h.rankingService.Top(ctx, h.limit)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		return req.Out.Send(msgNoPlayers)
	}

	msg := fmt.Sprintf("🏆 *TOP-%d PLAYERS BY BALANCE*\n\n", h.limit)
	for i, a := range accounts {
		msg += fmt.Sprintf("%s 👤 %s\n", medal(i), escapeMarkdown(leaderboardName(a)))
		msg += fmt.Sprintf("   ID: `%d` | 💰 %d$\n\n", a.InternalID, a.Balance)
	}

	return req.Out.SendMarkdown(msg)
}
