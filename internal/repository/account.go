// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cx-arcade-bot/internal/model"
	"cx-arcade-bot/internal/pkg/db"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrWagerNotFound   = errors.New("wager not found")
	ErrOutOfRange      = errors.New("total balance out of int64 range")
)

const accountColumns = `internal_id, external_id, display_name, balance, last_game_at, role, created_at`

// AccountRepository persists accounts in PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	var role string
	err := row.Scan(
		&a.InternalID,
		&a.ExternalID,
		&a.DisplayName,
		&a.Balance,
		&a.LastGameAt,
		&role,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}

// GetByExternalID retrieves an account by Telegram user id.
// Returns ErrAccountNotFound if the user never interacted with the bot.
func (r *AccountRepository) GetByExternalID(ctx context.Context, externalID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE external_id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// GetByInternalID retrieves an account by its internal id.
func (r *AccountRepository) GetByInternalID(ctx context.Context, internalID int64) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE internal_id = $1`

	a, err := scanAccount(r.pool.QueryRow(ctx, query, internalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by internal id: %w", err)
	}
	return a, nil
}

// Create inserts a new account. Players get the next positive internal id;
// the creator is stored at internal id 0, replacing whatever row held it.
func (r *AccountRepository) Create(ctx context.Context, acct *model.Account) (*model.Account, error) {
	if acct.Role == model.RoleCreator {
		return r.createCreator(ctx, acct)
	}

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		SELECT COALESCE(MAX(internal_id), 0) + 1, $1, $2, $3, 0, $4, $5
		FROM accounts
		WHERE internal_id > 0
		RETURNING ` + accountColumns

	created, err := scanAccount(r.pool.QueryRow(ctx, query,
		acct.ExternalID, acct.DisplayName, acct.Balance, string(model.RolePlayer), acct.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return created, nil
}

func (r *AccountRepository) createCreator(ctx context.Context, acct *model.Account) (*model.Account, error) {
	var created *model.Account
	err := db.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM accounts WHERE internal_id = $1 AND external_id <> $2`,
			model.CreatorInternalID, acct.ExternalID,
		); err != nil {
			return fmt.Errorf("failed to clear creator slot: %w", err)
		}

		query := `
			INSERT INTO accounts (` + accountColumns + `)
			VALUES ($1, $2, $3, $4, 0, $5, $6)
			ON CONFLICT (external_id) DO UPDATE SET
				internal_id = EXCLUDED.internal_id,
				display_name = EXCLUDED.display_name,
				balance = EXCLUDED.balance,
				last_game_at = 0,
				role = EXCLUDED.role,
				created_at = EXCLUDED.created_at
			RETURNING ` + accountColumns

		a, err := scanAccount(tx.QueryRow(ctx, query,
			model.CreatorInternalID, acct.ExternalID, acct.DisplayName, acct.Balance,
			string(model.RoleCreator), acct.CreatedAt,
		))
		if err != nil {
			return fmt.Errorf("failed to insert creator: %w", err)
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create creator account: %w", err)
	}
	return created, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isOutOfRange reports whether err is a PostgreSQL numeric_value_out_of_range (22003).
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

// SetBalance overwrites an account's balance.
func (r *AccountRepository) SetBalance(ctx context.Context, externalID int64, balance int64) error {
	return r.exec(ctx, "set balance",
		`UPDATE accounts SET balance = $2 WHERE external_id = $1`, externalID, balance)
}

// SetLastGame overwrites the last played timestamp (unix seconds).
func (r *AccountRepository) SetLastGame(ctx context.Context, externalID int64, ts int64) error {
	return r.exec(ctx, "set last game",
		`UPDATE accounts SET last_game_at = $2 WHERE external_id = $1`, externalID, ts)
}

// UpdateDisplayName stores the latest Telegram username.
func (r *AccountRepository) UpdateDisplayName(ctx context.Context, externalID int64, name *string) error {
	return r.exec(ctx, "update display name",
		`UPDATE accounts SET display_name = $2 WHERE external_id = $1`, externalID, name)
}

func (r *AccountRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Stats aggregates player accounts (internal id > 0).
func (r *AccountRepository) Stats(ctx context.Context) (*model.Stats, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(balance), 0)::BIGINT, COALESCE(MAX(balance), 0)
		FROM accounts
		WHERE internal_id > 0
	`

	var stats model.Stats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.PlayerCount, &stats.TotalBalance, &stats.MaxBalance); err != nil {
		if isOutOfRange(err) {
			return nil, fmt.Errorf("failed to aggregate stats: %w", ErrOutOfRange)
		}
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	if stats.PlayerCount == 0 {
		return &stats, nil
	}

	top, err := r.Top(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(top) > 0 {
		stats.Richest = top[0]
	}
	return &stats, nil
}

// Top returns up to limit player accounts ordered by balance descending,
// ties broken by internal id.
func (r *AccountRepository) Top(ctx context.Context, limit int) ([]*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE internal_id > 0
		ORDER BY balance DESC, internal_id ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}
