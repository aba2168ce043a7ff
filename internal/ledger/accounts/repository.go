package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// ErrDuplicateCode indicates an account code is already registered.
var ErrDuplicateCode = errors.New("accounts: code already registered")

// ErrAccountReferenced indicates the account has journal lines and cannot be removed.
var ErrAccountReferenced = errors.New("accounts: account referenced by journal lines")

// Repository persists the chart of accounts.
type Repository interface {
	List(ctx context.Context) ([]ledger.Account, error)
	GetByCode(ctx context.Context, code string) (ledger.Account, error)
	Insert(ctx context.Context, account ledger.Account) (ledger.Account, error)
	Rename(ctx context.Context, code, name string) error
	Deactivate(ctx context.Context, code string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pg-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `code, name, type, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM gl_accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetByCode(ctx context.Context, code string) (ledger.Account, error) {
	var a ledger.Account
	err := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE code=$1`, code).
		Scan(&a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrUnknownAccount
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, account ledger.Account) (ledger.Account, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO gl_accounts (code, name, type, is_active)
VALUES ($1,$2,$3,TRUE) RETURNING `+accountColumns, account.Code, account.Name, account.Type)
	var a ledger.Account
	if err := row.Scan(&a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ledger.Account{}, ErrDuplicateCode
		}
		return ledger.Account{}, err
	}
	return a, nil
}

func (r *repository) Rename(ctx context.Context, code, name string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE gl_accounts SET name=$2, updated_at=NOW() WHERE code=$1`, code, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrUnknownAccount
	}
	return nil
}

// Deactivate takes an account out of the posting path without deleting it.
// Accounts with journal lines are never removed.
func (r *repository) Deactivate(ctx context.Context, code string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE gl_accounts SET is_active=FALSE, updated_at=NOW() WHERE code=$1`, code)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrUnknownAccount
	}
	return nil
}
