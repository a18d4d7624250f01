// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cx-arcade-bot/internal/model"
	"cx-arcade-bot/internal/repository"
)

// Common errors for account operations.
var (
	ErrNotCreator    = errors.New("command is reserved for the creator")
	ErrBonusOverflow = errors.New("bonus would overflow balance")
)

// AccountStore is the persistence contract the services need.
// Implemented by repository.AccountRepository and repository.MemoryAccountRepository.
type AccountStore interface {
	GetByExternalID(ctx context.Context, externalID int64) (*model.Account, error)
	GetByInternalID(ctx context.Context, internalID int64) (*model.Account, error)
	Create(ctx context.Context, acct *model.Account) (*model.Account, error)
	SetBalance(ctx context.Context, externalID int64, balance int64) error
	SetLastGame(ctx context.Context, externalID int64, ts int64) error
	UpdateDisplayName(ctx context.Context, externalID int64, name *string) error
	Stats(ctx context.Context) (*model.Stats, error)
	Top(ctx context.Context, limit int) ([]*model.Account, error)
}

// AccountConfig holds the economy settings of AccountService.
type AccountConfig struct {
	CreatorID     int64
	CreatorHandle string
	StartBalance  int64
	BonusAmount   int64
}

// AccountService handles account lifecycle and the creator bonus.
type AccountService struct {
	accounts AccountStore
	cfg      AccountConfig
	now      func() time.Time

	// createMu serializes next-id assignment across users.
	createMu sync.Mutex
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(accounts AccountStore, cfg AccountConfig) *AccountService {
	return &AccountService{
		accounts: accounts,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CreatorHandle returns the creator's public handle.
func (s *AccountService) CreatorHandle() string {
	return s.cfg.CreatorHandle
}

// IsConfiguredCreator reports whether externalID is the creator's Telegram
// id from configuration. It can differ from the stored creator role after
// the id is reconfigured, since the slot 0 account is never moved.
func (s *AccountService) IsConfiguredCreator(externalID int64) bool {
	return externalID == s.cfg.CreatorID
}

// BonusAmount returns the amount granted by the creator bonus.
func (s *AccountService) BonusAmount() int64 {
	return s.cfg.BonusAmount
}

// EnsureAccount returns the account for externalID, creating it on first
// interaction. The bool reports whether the account was just created.
// A changed Telegram username is written back to the store.
func (s *AccountService) EnsureAccount(ctx context.Context, externalID int64, displayName *string) (*model.Account, bool, error) {
	acct, err := s.accounts.GetByExternalID(ctx, externalID)
	if err == nil {
		s.refreshName(ctx, acct, displayName)
		return acct, false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, false, fmt.Errorf("failed to ensure account: %w", err)
	}

	return s.create(ctx, externalID, displayName)
}

func (s *AccountService) create(ctx context.Context, externalID int64, displayName *string) (*model.Account, bool, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	role := model.RolePlayer
	if externalID == s.cfg.CreatorID {
		role = model.RoleCreator
	}

	acct, err := s.accounts.Create(ctx, &model.Account{
		ExternalID:  externalID,
		DisplayName: displayName,
		Balance:     s.cfg.StartBalance,
		Role:        role,
		CreatedAt:   s.now().Unix(),
	})
	if err != nil {
		// Another request may have created the account first
		if errors.Is(err, repository.ErrAccountExists) {
			existing, getErr := s.accounts.GetByExternalID(ctx, externalID)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load account after conflict: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	log.Info().
		Int64("user_id", externalID).
		Int64("internal_id", acct.InternalID).
		Str("role", string(acct.Role)).
		Msg("Account created")

	return acct, true, nil
}

func (s *AccountService) refreshName(ctx context.Context, acct *model.Account, displayName *string) {
	if displayName == nil || *displayName == "" || acct.Name() == *displayName {
		return
	}
	if err := s.accounts.UpdateDisplayName(ctx, acct.ExternalID, displayName); err != nil {
		// Non-fatal, the account is still usable
		log.Warn().Err(err).Int64("user_id", acct.ExternalID).Msg("Failed to refresh display name")
		return
	}
	name := *displayName
	acct.DisplayName = &name
}

// EnsureCreator creates the creator account from configuration when no
// account holds internal id 0. Safe to call on every startup.
func (s *AccountService) EnsureCreator(ctx context.Context) (*model.Account, bool, error) {
	creator, err := s.accounts.GetByInternalID(ctx, model.CreatorInternalID)
	if err == nil {
		return creator, false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, false, fmt.Errorf("failed to look up creator: %w", err)
	}

	var handle *string
	if s.cfg.CreatorHandle != "" {
		h := s.cfg.CreatorHandle
		handle = &h
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	creator, err = s.accounts.Create(ctx, &model.Account{
		ExternalID:  s.cfg.CreatorID,
		DisplayName: handle,
		Balance:     s.cfg.StartBalance,
		Role:        model.RoleCreator,
		CreatedAt:   s.now().Unix(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to create creator: %w", err)
	}

	log.Info().
		Int64("user_id", creator.ExternalID).
		Str("handle", s.cfg.CreatorHandle).
		Msg("Creator initialized with internal id 0")

	return creator, true, nil
}

// GetAccount retrieves an account by Telegram user id.
func (s *AccountService) GetAccount(ctx context.Context, externalID int64) (*model.Account, error) {
	return s.accounts.GetByExternalID(ctx, externalID)
}

// Creator retrieves the account holding internal id 0.
func (s *AccountService) Creator(ctx context.Context) (*model.Account, error) {
	return s.accounts.GetByInternalID(ctx, model.CreatorInternalID)
}

// GrantBonus credits the configured bonus to the creator's own account.
// The caller must hold the account's lock.
func (s *AccountService) GrantBonus(ctx context.Context, acct *model.Account) (*model.Account, error) {
	if !acct.IsCreator() {
		return nil, ErrNotCreator
	}
	if acct.Balance > math.MaxInt64-s.cfg.BonusAmount {
		return nil, ErrBonusOverflow
	}

	newBalance := acct.Balance + s.cfg.BonusAmount
	if err := s.accounts.SetBalance(ctx, acct.ExternalID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to grant bonus: %w", err)
	}

	log.Info().
		Int64("user_id", acct.ExternalID).
		Int64("amount", s.cfg.BonusAmount).
		Int64("balance", newBalance).
		Str("operation", "secret_bonus").
		Msg("Admin operation executed")

	updated := acct.Clone()
	updated.Balance = newBalance
	return updated, nil
}
