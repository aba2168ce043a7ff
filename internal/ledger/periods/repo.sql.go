package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists fiscal periods.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, periodID int64) (Period, error)
	SetClosed(ctx context.Context, periodID, actorID int64, at time.Time) error
	SetReopened(ctx context.Context, periodID, actorID int64, at time.Time) error
	EntryCount(ctx context.Context, periodID int64) (int64, error)
	UnbalancedEntryCount(ctx context.Context, periodID int64) (int64, error)
	LatestPeriod(ctx context.Context) (Period, bool, error)
	RangeConflict(ctx context.Context, start, end time.Time) (bool, error)
	Insert(ctx context.Context, in CreateInput) (Period, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("periods repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const periodColumns = `id, code, start_date, end_date, status, closed_by, closed_at, reopened_by, reopened_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.ReopenedBy, &p.ReopenedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, periodID int64) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods WHERE id=$1 FOR UPDATE`, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *txRepository) SetClosed(ctx context.Context, periodID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_periods SET status='CLOSED', closed_by=$2, closed_at=$3, updated_at=NOW() WHERE id=$1`, periodID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) SetReopened(ctx context.Context, periodID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE fiscal_periods SET status='OPEN', reopened_by=$2, reopened_at=$3, updated_at=NOW() WHERE id=$1`, periodID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) EntryCount(ctx context.Context, periodID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE period_id=$1`, periodID).Scan(&count)
	return count, err
}

// UnbalancedEntryCount recomputes per-entry balance from the lines. Posting
// guarantees the count is zero; Close asserts it anyway before freezing the
// period.
func (r *txRepository) UnbalancedEntryCount(ctx context.Context, periodID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM (
SELECT l.entry_id
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.period_id = $1
GROUP BY l.entry_id
HAVING COALESCE(SUM(l.amount_minor) FILTER (WHERE l.side='DEBIT'), 0)
    <> COALESCE(SUM(l.amount_minor) FILTER (WHERE l.side='CREDIT'), 0)
) unbalanced`, periodID).Scan(&count)
	return count, err
}

func (r *txRepository) LatestPeriod(ctx context.Context) (Period, bool, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY end_date DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, false, nil
		}
		return Period{}, false, err
	}
	return p, true, nil
}

func (r *txRepository) RangeConflict(ctx context.Context, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM fiscal_periods WHERE start_date <= $2 AND end_date >= $1
)`, start, end).Scan(&conflict)
	return conflict, err
}

func (r *txRepository) Insert(ctx context.Context, in CreateInput) (Period, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO fiscal_periods (code, start_date, end_date, status)
VALUES ($1,$2,$3,'OPEN') RETURNING `+periodColumns, in.Code, in.StartDate, in.EndDate)
	return scanPeriod(row)
}

// List returns periods ordered by start date.
func (r *Repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(&p.ID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.ReopenedBy, &p.ReopenedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindByDate returns the period covering the supplied date regardless of status.
func (r *Repository) FindByDate(ctx context.Context, date time.Time) (Period, error) {
	p, err := scanPeriod(r.pool.QueryRow(ctx, `SELECT `+periodColumns+`
FROM fiscal_periods WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, ErrNotFound
		}
		return Period{}, err
	}
	return p, nil
}
