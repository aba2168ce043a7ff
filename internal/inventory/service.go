package inventory

import (
	"context"
	"time"

	"github.com/printforge-erp/printforge-erp/internal/reconcile"
)

// RepositoryPort abstracts movement storage.
type RepositoryPort interface {
	InsertMovement(ctx context.Context, in MovementInput) (Movement, error)
	ValuationMinor(ctx context.Context, category reconcile.Category, asOf time.Time) (int64, error)
}

// Service is the inventory collaborator consumed by the reconciler. It owns
// physical stock valuation; it never writes to the ledger.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RecordMovement validates and records a stock change.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput) (Movement, error) {
	if err := in.Validate(); err != nil {
		return Movement{}, err
	}
	if in.MovedAt.IsZero() {
		in.MovedAt = s.now()
	}
	return s.repo.InsertMovement(ctx, in)
}

// PhysicalValuation implements reconcile.Valuer.
func (s *Service) PhysicalValuation(ctx context.Context, category reconcile.Category, asOf time.Time) (int64, error) {
	if reconcile.AccountForCategory(category) == "" {
		return 0, ErrUnknownCategory
	}
	return s.repo.ValuationMinor(ctx, category, asOf)
}
