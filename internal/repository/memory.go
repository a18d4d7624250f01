package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cx-arcade-bot/internal/model"
)

// MemoryAccountRepository is an in-process account store for local runs
// (database.driver = memory) and tests. Data is lost on exit.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[int64]*model.Account // by external id
}

// NewMemoryAccountRepository creates an empty in-memory account store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[int64]*model.Account)}
}

// GetByExternalID retrieves an account by Telegram user id.
func (r *MemoryAccountRepository) GetByExternalID(_ context.Context, externalID int64) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[externalID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

// GetByInternalID retrieves an account by its internal id.
func (r *MemoryAccountRepository) GetByInternalID(_ context.Context, internalID int64) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.InternalID == internalID {
			return a.Clone(), nil
		}
	}
	return nil, ErrAccountNotFound
}

// Create inserts a new account with the same id rules as the PostgreSQL store.
func (r *MemoryAccountRepository) Create(_ context.Context, acct *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := acct.Clone()
	a.LastGameAt = 0

	if a.Role == model.RoleCreator {
		for id, existing := range r.accounts {
			if existing.InternalID == model.CreatorInternalID && id != a.ExternalID {
				delete(r.accounts, id)
			}
		}
		a.InternalID = model.CreatorInternalID
	} else {
		if _, exists := r.accounts[a.ExternalID]; exists {
			return nil, ErrAccountExists
		}
		a.Role = model.RolePlayer
		a.InternalID = r.nextInternalID()
	}

	r.accounts[a.ExternalID] = a
	return a.Clone(), nil
}

func (r *MemoryAccountRepository) nextInternalID() int64 {
	var maxID int64
	for _, a := range r.accounts {
		if a.InternalID > maxID {
			maxID = a.InternalID
		}
	}
	return maxID + 1
}

// SetBalance overwrites an account's balance.
func (r *MemoryAccountRepository) SetBalance(_ context.Context, externalID int64, balance int64) error {
	return r.update(externalID, func(a *model.Account) { a.Balance = balance })
}

// SetLastGame overwrites the last played timestamp.
func (r *MemoryAccountRepository) SetLastGame(_ context.Context, externalID int64, ts int64) error {
	return r.update(externalID, func(a *model.Account) { a.LastGameAt = ts })
}

// UpdateDisplayName stores the latest Telegram username.
func (r *MemoryAccountRepository) UpdateDisplayName(_ context.Context, externalID int64, name *string) error {
	return r.update(externalID, func(a *model.Account) {
		if name == nil {
			a.DisplayName = nil
			return
		}
		n := *name
		a.DisplayName = &n
	})
}

func (r *MemoryAccountRepository) update(externalID int64, fn func(a *model.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[externalID]
	if !ok {
		return ErrAccountNotFound
	}
	fn(a)
	return nil
}

// Stats aggregates player accounts (internal id > 0).
func (r *MemoryAccountRepository) Stats(_ context.Context) (*model.Stats, error) {
	players := r.players()

	stats := &model.Stats{}
	for _, a := range players {
		if a.Balance > 0 && stats.TotalBalance > math.MaxInt64-a.Balance {
			return nil, fmt.Errorf("failed to aggregate stats: %w", ErrOutOfRange)
		}
		stats.PlayerCount++
		stats.TotalBalance += a.Balance
	}
	if len(players) > 0 {
		stats.MaxBalance = players[0].Balance
		stats.Richest = players[0]
	}
	return stats, nil
}

// Top returns up to limit player accounts ordered by balance descending,
// ties broken by internal id.
func (r *MemoryAccountRepository) Top(_ context.Context, limit int) ([]*model.Account, error) {
	players := r.players()
	if limit >= 0 && len(players) > limit {
		players = players[:limit]
	}
	return players, nil
}

// players returns clones of all player accounts in leaderboard order.
func (r *MemoryAccountRepository) players() []*model.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]*model.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		if a.InternalID > 0 {
			players = append(players, a.Clone())
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Balance != players[j].Balance {
			return players[i].Balance > players[j].Balance
		}
		return players[i].InternalID < players[j].InternalID
	})
	return players
}

// MemoryWagerRepository is an in-process wager log.
type MemoryWagerRepository struct {
	mu     sync.RWMutex
	wagers map[string]*model.Wager
}

// NewMemoryWagerRepository creates an empty in-memory wager log.
func NewMemoryWagerRepository() *MemoryWagerRepository {
	return &MemoryWagerRepository{wagers: make(map[string]*model.Wager)}
}

// Create records a pending wager. An id is generated when w.ID is empty.
func (r *MemoryWagerRepository) Create(_ context.Context, w *model.Wager) (*model.Wager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *w
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = model.WagerPending
	c.CreatedAt = time.Now()
	c.SettledAt = nil
	r.wagers[c.ID] = &c

	out := c
	return &out, nil
}

// Settle marks a pending wager as settled with its result.
func (r *MemoryWagerRepository) Settle(_ context.Context, id string, s model.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.wagers[id]
	if !ok || w.Status != model.WagerPending {
		return ErrWagerNotFound
	}
	now := time.Now()
	w.Status = model.WagerSettled
	w.Outcome = s.Outcome
	w.Won = s.Won
	w.Delta = s.Delta
	w.BalanceAfter = s.BalanceAfter
	w.SettledAt = &now
	return nil
}

// Get retrieves a wager by id.
func (r *MemoryWagerRepository) Get(_ context.Context, id string) (*model.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.wagers[id]
	if !ok {
		return nil, ErrWagerNotFound
	}
	out := *w
	return &out, nil
}

// ListPending returns wagers that were started but never settled, oldest first.
func (r *MemoryWagerRepository) ListPending(_ context.Context) ([]*model.Wager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*model.Wager
	for _, w := range r.wagers {
		if w.Status == model.WagerPending {
			out := *w
			pending = append(pending, &out)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// All returns every recorded wager; used by tests and diagnostics.
func (r *MemoryWagerRepository) All() []*model.Wager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Wager, 0, len(r.wagers))
	for _, w := range r.wagers {
		out := *w
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all
}
