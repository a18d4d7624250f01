package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/repository"
	"cx-arcade-bot/internal/service"
)

// AdminHandler handles creator-only commands.
type AdminHandler struct {
	accountService *service.AccountService
	rankingService *service.RankingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService, rankingService *service.RankingService) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		rankingService: rankingService,
	}
}

// Register binds the admin commands to d.
func (h *AdminHandler) Register(d *Dispatcher) {
	d.Register("stats", h.HandleStats)
	d.Register("admin_help", h.HandleAdminHelp)
	d.Register("secret_bonus_admin", h.HandleSecretBonus)
}

func (h *AdminHandler) deny(req *Request) error {
	log.Warn().
		Int64("user_id", req.UserID).
		Str("command", req.Text).
		Msg("Non-creator attempted admin command")
	return req.Out.Send(msgOnlyOwner)
}

// HandleStats handles the /stats command. stats and admin_help are gated on
// the configured creator id; the bonus is gated on the stored creator role.
func (h *AdminHandler) HandleStats(ctx context.Context, req *Request) error {
	if !h.accountService.IsConfiguredCreator(req.UserID) {
		return h.deny(req)
	}

	stats, err := h.rankingService.Stats(ctx)
	if err != nil {
		return err
	}

	msg := "📊 BOT STATISTICS\n\n"
	msg += fmt.Sprintf("👥 Total players: %d\n", stats.PlayerCount)
	msg += fmt.Sprintf("💰 Total balance: %d$\n", stats.TotalBalance)
	msg += fmt.Sprintf("📈 Max balance: %d$\n", stats.MaxBalance)

	if stats.Richest != nil {
		name := stats.Richest.Name()
		if name == "" {
			name = "Player"
		}
		msg += fmt.Sprintf("\n🏆 Richest: %s (%d$)", name, stats.Richest.Balance)
	}
	msg += "\n\nℹ️ Players only (internal id > 0)"

	return req.Out.Send(msg)
}

// HandleAdminHelp handles the /admin_help command.
func (h *AdminHandler) HandleAdminHelp(_ context.Context, req *Request) error {
	if !h.accountService.IsConfiguredCreator(req.UserID) {
		return h.deny(req)
	}
	return req.Out.SendMarkdown(fmt.Sprintf(adminHelp, formatAmount(h.accountService.BonusAmount())))
}

// HandleSecretBonus handles /secret_bonus_admin [money|user].
func (h *AdminHandler) HandleSecretBonus(ctx context.Context, req *Request) error {
	if len(req.Args) < 1 {
		return req.Out.Send(fmt.Sprintf(bonusHelp, formatAmount(h.accountService.BonusAmount())))
	}

	switch strings.ToLower(req.Args[0]) {
	case "money":
		return h.grantBonus(ctx, req)
	case "user":
		return h.showCreator(ctx, req)
	default:
		return req.Out.Send(msgUnknownArg)
	}
}

func (h *AdminHandler) grantBonus(ctx context.Context, req *Request) error {
	updated, err := h.accountService.GrantBonus(ctx, req.Account)
	switch {
	case errors.Is(err, service.ErrNotCreator):
		return h.deny(req)
	case errors.Is(err, service.ErrBonusOverflow):
		return req.Out.Send("❌ The bonus would overflow your balance")
	case err != nil:
		return err
	}

	if err := req.Out.Send(fmt.Sprintf("🎁 %s$ has been credited to your balance!", formatAmount(h.accountService.BonusAmount()))); err != nil {
		return err
	}
	return req.Out.Send(fmt.Sprintf("💰 New balance: %d$", updated.Balance))
}

func (h *AdminHandler) showCreator(ctx context.Context, req *Request) error {
	if err := req.Out.Send(fmt.Sprintf("👑 Bot creator - %s", h.accountService.CreatorHandle())); err != nil {
		return err
	}

	creator, err := h.accountService.Creator(ctx)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := req.Out.Send(fmt.Sprintf("📋 Creator's ID in the system: %d", creator.InternalID)); err != nil {
		return err
	}
	return req.Out.Send(fmt.Sprintf("💰 Creator's balance: %d$", creator.Balance))
}
