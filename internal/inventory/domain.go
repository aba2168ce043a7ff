package inventory

import (
	"errors"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/reconcile"
)

// Movement models one physical stock change in a category: filament spools
// received, resin issued to a printer, finished prints passing QC, boxes
// consumed for shipment.
type Movement struct {
	ID            int64
	Category      reconcile.Category
	ItemCode      string
	Qty           float64
	UnitCostMinor int64
	MovedAt       time.Time
	Note          string
}

// MovementInput describes a stock change to record.
type MovementInput struct {
	Category      reconcile.Category
	ItemCode      string
	Qty           float64
	UnitCostMinor int64
	MovedAt       time.Time
	Note          string
}

// ErrInvalidQuantity indicates a zero quantity movement.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrInvalidUnitCost indicates a negative unit cost.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")

// ErrUnknownCategory indicates a category outside the reconciled buckets.
var ErrUnknownCategory = errors.New("inventory: unknown category")

// Validate checks the movement input.
func (in MovementInput) Validate() error {
	if reconcile.AccountForCategory(in.Category) == "" {
		return ErrUnknownCategory
	}
	if in.Qty == 0 {
		return ErrInvalidQuantity
	}
	if in.UnitCostMinor < 0 {
		return ErrInvalidUnitCost
	}
	return nil
}
