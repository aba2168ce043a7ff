package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// Repository reads report aggregates. Reads go straight to the pool; a
// committed entry is visible in full or not at all.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AccountTotals sums line amounts per account for entries posted on or
// before asOf. Every registered account appears, with zero totals when it
// has no activity.
func (r *Repository) AccountTotals(ctx context.Context, asOf time.Time) ([]AccountTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.code, a.name, a.type,
COALESCE(t.debit_minor, 0), COALESCE(t.credit_minor, 0)
FROM gl_accounts a
LEFT JOIN (
	SELECT l.account_code,
		SUM(l.amount_minor) FILTER (WHERE l.side='DEBIT') AS debit_minor,
		SUM(l.amount_minor) FILTER (WHERE l.side='CREDIT') AS credit_minor
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.entry_id
	WHERE e.posted_at <= $1
	GROUP BY l.account_code
) t ON t.account_code = a.code
ORDER BY a.code`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []AccountTotal
	for rows.Next() {
		var t AccountTotal
		if err := rows.Scan(&t.Code, &t.Name, &t.Type, &t.DebitMinor, &t.CreditMinor); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Account loads one account for ledger reporting.
func (r *Repository) Account(ctx context.Context, code string) (ledger.Account, error) {
	var a ledger.Account
	err := r.pool.QueryRow(ctx, `SELECT code, name, type, is_active, created_at, updated_at FROM gl_accounts WHERE code=$1`, code).
		Scan(&a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrUnknownAccount
		}
		return ledger.Account{}, &ledger.TransientError{Err: err}
	}
	return a, nil
}

// OpeningTotals sums the account's debit and credit lines strictly before
// the given date.
func (r *Repository) OpeningTotals(ctx context.Context, code string, before time.Time) (debitMinor, creditMinor int64, err error) {
	err = r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(l.amount_minor) FILTER (WHERE l.side='DEBIT'), 0),
COALESCE(SUM(l.amount_minor) FILTER (WHERE l.side='CREDIT'), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_code = $1 AND e.posted_at < $2`, code, before).Scan(&debitMinor, &creditMinor)
	return debitMinor, creditMinor, err
}

// AccountLines returns the account's lines within [from, to], ordered by
// posted_at then entry id.
func (r *Repository) AccountLines(ctx context.Context, code string, from, to time.Time) ([]LedgerLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.entry_id, e.posted_at, l.side, l.amount_minor
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_code = $1 AND e.posted_at >= $2 AND e.posted_at <= $3
ORDER BY e.posted_at ASC, l.entry_id ASC, l.id ASC`, code, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		var line LedgerLine
		if err := rows.Scan(&line.EntryID, &line.PostedAt, &line.Side, &line.AmountMinor); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
