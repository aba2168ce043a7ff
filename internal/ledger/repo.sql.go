package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
)

// Repository persists journal entries and lines.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations of the posting engine.
type TxRepository interface {
	ResolveAccounts(ctx context.Context, codes []string) (map[string]Account, error)
	GetPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error)
	InsertEntry(ctx context.Context, periodID int64, draft Draft, postedAt time.Time) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []DraftLine) ([]JournalLine, error)
	LinkSource(ctx context.Context, ref SourceRef, entryID int64) error
	GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction. Infrastructure
// failures from begin/commit are wrapped as transient so callers may retry
// with the same dedup key.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return &TransientError{Err: err}
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &TransientError{Err: err}
	}
	return nil
}

func (r *txRepository) ResolveAccounts(ctx context.Context, codes []string) (map[string]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT code, name, type, is_active, created_at, updated_at
FROM gl_accounts WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := make(map[string]Account, len(codes))
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts[a.Code] = a
	}
	return accounts, rows.Err()
}

// GetPeriodByDateForUpdate locks the period row covering date. The lock is
// what makes the open-check at commit time race-free against close/reopen.
func (r *txRepository) GetPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, code, start_date, end_date, status, closed_by, closed_at, reopened_by, reopened_at, created_at, updated_at
FROM fiscal_periods WHERE $1 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR UPDATE`, date).
		Scan(&p.ID, &p.Code, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedBy, &p.ClosedAt, &p.ReopenedBy, &p.ReopenedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, periodID int64, draft Draft, postedAt time.Time) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (period_id, posted_at, source_type, source_id, source_step, memo, posted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		periodID, postedAt, draft.Source.Type, draft.Source.ID, draft.Source.Step, draft.Memo, draft.PostedBy)
	entry := JournalEntry{
		PeriodID: periodID,
		PostedAt: postedAt,
		Source:   draft.Source,
		Memo:     draft.Memo,
		PostedBy: draft.PostedBy,
	}
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []DraftLine) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		var id int64
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_code, side, amount_minor)
VALUES ($1,$2,$3,$4) RETURNING id`, entryID, line.AccountCode, line.Side, line.AmountMinor).Scan(&id)
		if err != nil {
			return nil, err
		}
		out = append(out, JournalLine{
			ID:          id,
			EntryID:     entryID,
			AccountCode: line.AccountCode,
			Side:        line.Side,
			AmountMinor: line.AmountMinor,
		})
	}
	return out, nil
}

func (r *txRepository) LinkSource(ctx context.Context, ref SourceRef, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (source_type, source_id, source_step, entry_id)
VALUES ($1,$2,$3,$4)`, ref.Type, ref.ID, ref.Step, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePosting
		}
		return err
	}
	return nil
}

const entryColumns = `id, period_id, posted_at, source_type, source_id, source_step, memo, posted_by, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.PeriodID, &e.PostedAt, &e.Source.Type, &e.Source.ID, &e.Source.Step, &e.Memo, &e.PostedBy, &e.CreatedAt)
	return e, err
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, account_code, side, amount_minor
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountCode, &line.Side, &line.AmountMinor); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

// CountEntries returns the total committed entry count.
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries`).Scan(&total)
	return total, err
}

// ListEntries returns committed entries newest first.
func (r *Repository) ListEntries(ctx context.Context, limit, offset int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.PeriodID, &e.PostedAt, &e.Source.Type, &e.Source.ID, &e.Source.Step, &e.Memo, &e.PostedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
