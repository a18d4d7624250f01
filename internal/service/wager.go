package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/game"
	"cx-arcade-bot/internal/game/casino"
	"cx-arcade-bot/internal/game/guess"
	"cx-arcade-bot/internal/model"
)

// Validation errors for wagers. None of them mutate state.
var (
	ErrAmountNotANumber  = errors.New("amount is not a number")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAmountTooLarge    = errors.New("amount too large")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidGuess      = errors.New("guess must be between 1 and 6")
)

// WagerStore records wager intents and their settlement.
// Implemented by repository.WagerRepository and repository.MemoryWagerRepository.
type WagerStore interface {
	Create(ctx context.Context, w *model.Wager) (*model.Wager, error)
	Settle(ctx context.Context, id string, s model.Settlement) error
	ListPending(ctx context.Context) ([]*model.Wager, error)
}

// Stage identifies a point of a round worth telling the player about.
type Stage int

const (
	// StagePlaced fires once the stake is accepted.
	StagePlaced Stage = iota
	// StageDrawn fires after the die roll or the multiplier draw.
	StageDrawn
	// StageSettled fires after the final balance is persisted.
	StageSettled
)

// Round is the running state of one wager, filled in stage by stage.
type Round struct {
	ID      string
	Game    string
	Amount  int64
	Pick    int
	Outcome int
	Won     bool
	// Delta is the net balance change of the round.
	Delta int64
	// Payout is the amount announced on a win.
	Payout int64
	// Balance is the balance after the latest persisted write.
	Balance int64
}

// Announcer receives each stage of a round in order.
type Announcer func(ctx context.Context, stage Stage, r *Round)

func (a Announcer) emit(ctx context.Context, stage Stage, r *Round) {
	if a != nil {
		a(ctx, stage, r)
	}
}

// WagerService runs the guess and casino rounds.
type WagerService struct {
	accounts AccountStore
	wagers   WagerStore
	src      game.Source
	pacing   time.Duration
	now      func() time.Time
}

// NewWagerService creates a new WagerService instance. pacing is the
// delay inserted between announcements.
func NewWagerService(accounts AccountStore, wagers WagerStore, src game.Source, pacing time.Duration) *WagerService {
	return &WagerService{
		accounts: accounts,
		wagers:   wagers,
		src:      src,
		pacing:   pacing,
		now:      time.Now,
	}
}

// ParseAmount parses a stake from a command argument.
func ParseAmount(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			if len(arg) > 0 && arg[0] == '-' {
				return 0, ErrInvalidAmount
			}
			return 0, ErrAmountTooLarge
		}
		return 0, ErrAmountNotANumber
	}
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// ParseGuess parses the guessed die face from a command argument.
func ParseGuess(arg string) (int, error) {
	pick, err := guess.ParsePick(arg)
	if err != nil {
		return 0, ErrInvalidGuess
	}
	return pick, nil
}

// Pause blocks for d or until ctx is done, whichever comes first.
// Only the calling goroutine waits.
func Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// validateStake checks the stake against the game's bet rules, the
// account's funds and the headroom left for the best possible outcome.
func validateStake(acct *model.Account, amount int64, check func(int64) error, maxGain func(int64) int64) error {
	if err := check(amount); err != nil {
		if errors.Is(err, guess.ErrBetTooLarge) || errors.Is(err, casino.ErrBetTooLarge) {
			return ErrAmountTooLarge
		}
		return ErrInvalidAmount
	}
	if amount > acct.Balance {
		return ErrInsufficientFunds
	}
	if acct.Balance > math.MaxInt64-maxGain(amount) {
		return ErrAmountTooLarge
	}
	return nil
}

// PlayGuess runs a guess round. The stake is debited before the roll and
// credited back with the winnings on a match, in two separate writes.
// The caller must hold the account's lock.
func (s *WagerService) PlayGuess(ctx context.Context, acct *model.Account, amount int64, pick int, announce Announcer) (*Round, error) {
	if err := validateStake(acct, amount, guess.ValidateBet, guess.MaxGain); err != nil {
		return nil, err
	}
	if err := guess.ValidatePick(pick); err != nil {
		return nil, ErrInvalidGuess
	}

	w, err := s.begin(ctx, acct, model.GameGuess, amount, pick)
	if err != nil {
		return nil, err
	}
	// The intent is logged; finish the round even if ctx is cancelled.
	wctx := context.WithoutCancel(ctx)

	r := &Round{ID: w.ID, Game: model.GameGuess, Amount: amount, Pick: pick, Balance: acct.Balance}
	logger := log.With().Str("wager_id", w.ID).Int64("user_id", acct.ExternalID).Str("game", model.GameGuess).Logger()

	debited := acct.Balance - amount
	if err := s.accounts.SetBalance(wctx, acct.ExternalID, debited); err != nil {
		logger.Error().Err(err).Msg("Failed to debit stake")
		return nil, fmt.Errorf("failed to debit stake: %w", err)
	}
	r.Balance = debited
	announce.emit(ctx, StagePlaced, r)

	Pause(ctx, s.pacing)
	r.Outcome = guess.Roll(s.src)
	announce.emit(ctx, StageDrawn, r)

	Pause(ctx, s.pacing)
	final, won := guess.Settle(debited, amount, pick, r.Outcome)
	if won {
		if err := s.accounts.SetBalance(wctx, acct.ExternalID, final); err != nil {
			logger.Error().Err(err).Int64("amount", amount).Msg("Failed to credit winnings, stake stays debited")
			return nil, fmt.Errorf("failed to credit winnings: %w", err)
		}
		r.Payout = guess.Winnings(amount)
	}
	r.Won = won
	r.Balance = final
	r.Delta = final - acct.Balance

	if err := s.finish(wctx, acct, r); err != nil {
		return nil, err
	}
	announce.emit(ctx, StageSettled, r)
	return r, nil
}

// PlayCasino runs a casino round. The stake is not debited up front; the
// outcome is applied in a single write.
// The caller must hold the account's lock.
func (s *WagerService) PlayCasino(ctx context.Context, acct *model.Account, amount int64, announce Announcer) (*Round, error) {
	if err := validateStake(acct, amount, casino.ValidateBet, casino.MaxGain); err != nil {
		return nil, err
	}

	w, err := s.begin(ctx, acct, model.GameCasino, amount, 0)
	if err != nil {
		return nil, err
	}
	wctx := context.WithoutCancel(ctx)

	r := &Round{ID: w.ID, Game: model.GameCasino, Amount: amount, Balance: acct.Balance}
	announce.emit(ctx, StagePlaced, r)

	Pause(ctx, s.pacing)
	r.Outcome = casino.DrawMultiplier(s.src)
	announce.emit(ctx, StageDrawn, r)

	Pause(ctx, s.pacing)
	r.Won = casino.DrawWin(s.src)
	r.Delta = casino.Delta(amount, r.Outcome, r.Won)
	if r.Won {
		r.Payout = casino.Gross(amount, r.Outcome)
	}

	final := acct.Balance + r.Delta
	if err := s.accounts.SetBalance(wctx, acct.ExternalID, final); err != nil {
		log.Error().Err(err).
			Str("wager_id", w.ID).
			Int64("user_id", acct.ExternalID).
			Str("game", model.GameCasino).
			Msg("Failed to apply casino outcome")
		return nil, fmt.Errorf("failed to apply outcome: %w", err)
	}
	r.Balance = final

	if err := s.finish(wctx, acct, r); err != nil {
		return nil, err
	}
	announce.emit(ctx, StageSettled, r)
	return r, nil
}

// begin records the wager intent ahead of any balance write.
func (s *WagerService) begin(ctx context.Context, acct *model.Account, gameName string, amount int64, pick int) (*model.Wager, error) {
	w, err := s.wagers.Create(ctx, &model.Wager{
		ExternalID: acct.ExternalID,
		Game:       gameName,
		Amount:     amount,
		Pick:       pick,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record wager: %w", err)
	}
	log.Debug().
		Str("wager_id", w.ID).
		Int64("user_id", acct.ExternalID).
		Str("game", gameName).
		Int64("amount", amount).
		Msg("Wager placed")
	return w, nil
}

func (s *WagerService) finish(ctx context.Context, acct *model.Account, r *Round) error {
	if err := s.accounts.SetLastGame(ctx, acct.ExternalID, s.now().Unix()); err != nil {
		return fmt.Errorf("failed to set last game: %w", err)
	}

	err := s.wagers.Settle(ctx, r.ID, model.Settlement{
		Outcome:      r.Outcome,
		Won:          r.Won,
		Delta:        r.Delta,
		BalanceAfter: r.Balance,
	})
	if err != nil {
		// The balance is final; only the log row lags behind.
		log.Error().Err(err).Str("wager_id", r.ID).Msg("Failed to settle wager")
	}

	log.Info().
		Str("wager_id", r.ID).
		Int64("user_id", acct.ExternalID).
		Str("game", r.Game).
		Int64("amount", r.Amount).
		Int("outcome", r.Outcome).
		Bool("won", r.Won).
		Int64("delta", r.Delta).
		Msg("Wager settled")
	return nil
}

// ReportPending logs every wager that was started and never settled,
// typically after a crash mid-round. It returns the number found.
func (s *WagerService) ReportPending(ctx context.Context) (int, error) {
	pending, err := s.wagers.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	for _, w := range pending {
		log.Warn().
			Str("wager_id", w.ID).
			Int64("user_id", w.ExternalID).
			Str("game", w.Game).
			Int64("amount", w.Amount).
			Time("created_at", w.CreatedAt).
			Msg("Unsettled wager found, balance may need reconciliation")
	}
	return len(pending), nil
}
