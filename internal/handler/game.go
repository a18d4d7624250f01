package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/service"
)

// GameHandler handles the wager commands.
type GameHandler struct {
	wagerService *service.WagerService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(wagerService *service.WagerService) *GameHandler {
	return &GameHandler{wagerService: wagerService}
}

// Register binds the game commands to d.
func (h *GameHandler) Register(d *Dispatcher) {
	d.Register("game", h.HandleGuess)
	d.Register("casino", h.HandleCasino)
}

// HandleGuess handles /game <amount> <1-6>.
func (h *GameHandler) HandleGuess(ctx context.Context, req *Request) error {
	if len(req.Args) < 2 {
		return req.Out.Send(msgUsageGame)
	}

	amount, err := service.ParseAmount(req.Args[0])
	if err != nil {
		return replyValidation(req, err)
	}
	// An unparsable pick is left at 0 so the funds check still comes first.
	pick, _ := service.ParseGuess(req.Args[1])

	_, err = h.wagerService.PlayGuess(ctx, req.Account, amount, pick, func(_ context.Context, stage service.Stage, r *service.Round) {
		switch stage {
		case service.StagePlaced:
			send(req, fmt.Sprintf("🎲 You picked number %d", r.Pick))
		case service.StageDrawn:
			send(req, fmt.Sprintf("🎰 The die shows %d", r.Outcome))
		case service.StageSettled:
			if r.Won {
				send(req, fmt.Sprintf("🎉 YOU GUESSED IT! Winnings: %d$", r.Payout))
			} else {
				send(req, fmt.Sprintf("💔 Wrong guess! It was %d", r.Outcome))
			}
			send(req, fmt.Sprintf("💰 Balance: %d$", r.Balance))
		}
	})
	return replyValidation(req, err)
}

// HandleCasino handles /casino <amount>.
func (h *GameHandler) HandleCasino(ctx context.Context, req *Request) error {
	if len(req.Args) < 1 {
		return req.Out.Send(msgUsageBet)
	}

	amount, err := service.ParseAmount(req.Args[0])
	if err != nil {
		return replyValidation(req, err)
	}

	_, err = h.wagerService.PlayCasino(ctx, req.Account, amount, func(_ context.Context, stage service.Stage, r *service.Round) {
		switch stage {
		case service.StagePlaced:
			send(req, fmt.Sprintf("✅ Bet %d$ accepted!", r.Amount))
		case service.StageDrawn:
			send(req, fmt.Sprintf("🎰 Multiplier: x%d", r.Outcome))
		case service.StageSettled:
			if r.Won {
				send(req, fmt.Sprintf("🎉 VICTORY! You won %d$ (net profit: %d$)", r.Payout, r.Delta))
			} else {
				send(req, fmt.Sprintf("💔 DEFEAT! You lost %d$", r.Amount))
			}
			send(req, fmt.Sprintf("💰 New balance: %d$", r.Balance))
		}
	})
	return replyValidation(req, err)
}

// replyValidation answers wager validation errors and passes anything
// else through.
func replyValidation(req *Request, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrAmountNotANumber):
		return req.Out.Send(msgBadAmount)
	case errors.Is(err, service.ErrInvalidAmount):
		return req.Out.Send(msgZeroAmount)
	case errors.Is(err, service.ErrAmountTooLarge):
		return req.Out.Send(msgTooLarge)
	case errors.Is(err, service.ErrInsufficientFunds):
		return req.Out.Send(fmt.Sprintf("Insufficient funds! Your balance: %d$", req.Account.Balance))
	case errors.Is(err, service.ErrInvalidGuess):
		return req.Out.Send(msgBadGuess)
	default:
		return err
	}
}

// send delivers a round announcement. A failed send does not stop the round.
func send(req *Request, text string) {
	if err := req.Out.Send(text); err != nil {
		log.Warn().Err(err).Int64("user_id", req.UserID).Msg("Failed to send reply")
	}
}
