package inventory

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printforge-erp/printforge-erp/internal/reconcile"
)

// Repository persists physical stock movements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertMovement records one stock change.
func (r *Repository) InsertMovement(ctx context.Context, in MovementInput) (Movement, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO stock_movements (category, item_code, qty, unit_cost_minor, moved_at, note)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`, in.Category, in.ItemCode, in.Qty, in.UnitCostMinor, in.MovedAt, in.Note)
	movement := Movement{
		Category:      in.Category,
		ItemCode:      in.ItemCode,
		Qty:           in.Qty,
		UnitCostMinor: in.UnitCostMinor,
		MovedAt:       in.MovedAt,
		Note:          in.Note,
	}
	if err := row.Scan(&movement.ID); err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// ValuationMinor prices the category's stock as of a date: the sum over
// movements of qty times unit cost, rounded to minor units in SQL so Go
// never touches fractional currency.
func (r *Repository) ValuationMinor(ctx context.Context, category reconcile.Category, asOf time.Time) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(ROUND(SUM(qty * unit_cost_minor)), 0)::bigint
FROM stock_movements WHERE category=$1 AND moved_at <= $2`, category, asOf).Scan(&value)
	return value, err
}
