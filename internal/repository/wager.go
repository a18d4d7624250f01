package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cx-arcade-bot/internal/model"
)

const wagerColumns = `id, external_id, game, amount, pick, status, outcome, won, delta, balance_after, created_at, settled_at`

// WagerRepository persists the wager intent log in PostgreSQL.
type WagerRepository struct {
	pool *pgxpool.Pool
}

// NewWagerRepository creates a new WagerRepository instance.
func NewWagerRepository(pool *pgxpool.Pool) *WagerRepository {
	return &WagerRepository{pool: pool}
}

func scanWager(row pgx.Row) (*model.Wager, error) {
	var w model.Wager
	var id uuid.UUID
	var status string
	err := row.Scan(
		&id,
		&w.ExternalID,
		&w.Game,
		&w.Amount,
		&w.Pick,
		&status,
		&w.Outcome,
		&w.Won,
		&w.Delta,
		&w.BalanceAfter,
		&w.CreatedAt,
		&w.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	w.ID = id.String()
	w.Status = model.WagerStatus(status)
	return &w, nil
}

// Create records a pending wager. An id is generated when w.ID is empty.
func (r *WagerRepository) Create(ctx context.Context, w *model.Wager) (*model.Wager, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid wager id %q: %w", w.ID, err)
	}

	query := `
		INSERT INTO wagers (id, external_id, game, amount, pick, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + wagerColumns

	created, err := scanWager(r.pool.QueryRow(ctx, query,
		id, w.ExternalID, w.Game, w.Amount, w.Pick, string(model.WagerPending),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}
	return created, nil
}

// Settle marks a pending wager as settled with its result.
func (r *WagerRepository) Settle(ctx context.Context, id string, s model.Settlement) error {
	wagerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid wager id %q: %w", id, err)
	}

	const query = `
		UPDATE wagers
		SET status = $2, outcome = $3, won = $4, delta = $5, balance_after = $6, settled_at = $7
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query,
		wagerID, string(model.WagerSettled), s.Outcome, s.Won, s.Delta, s.BalanceAfter, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to settle wager: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrWagerNotFound
	}
	return nil
}

// Get retrieves a wager by id.
func (r *WagerRepository) Get(ctx context.Context, id string) (*model.Wager, error) {
	wagerID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrWagerNotFound
	}

	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`
	w, err := scanWager(r.pool.QueryRow(ctx, query, wagerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWagerNotFound
		}
		return nil, fmt.Errorf("failed to get wager: %w", err)
	}
	return w, nil
}

// ListPending returns wagers that were started but never settled, oldest first.
func (r *WagerRepository) ListPending(ctx context.Context) ([]*model.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE status = 'pending'
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*model.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wagers: %w", err)
	}
	return wagers, nil
}
