package reconcile

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/printforge-erp/printforge-erp/internal/ledger/reports"
)

// Valuer is the inventory collaborator: it prices the physically held stock
// of a category as of a date, in minor units.
type Valuer interface {
	PhysicalValuation(ctx context.Context, category Category, asOf time.Time) (int64, error)
}

// BalanceReader reads GL balances; satisfied by the reports service.
type BalanceReader interface {
	TrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error)
}

// Service compares physical inventory value against the GL inventory
// accounts. Read-only diagnostic; it never posts corrections.
type Service struct {
	balances BalanceReader
	valuer   Valuer
}

// NewService constructs the reconciler.
func NewService(balances BalanceReader, valuer Valuer) *Service {
	return &Service{balances: balances, valuer: valuer}
}

// Reconcile produces a snapshot per category as of the given date. The GL
// side comes from a single trial balance read; physical valuations fan out
// concurrently per category.
func (s *Service) Reconcile(ctx context.Context, asOf time.Time) ([]Snapshot, error) {
	tb, err := s.balances.TrialBalance(ctx, asOf)
	if err != nil {
		return nil, err
	}
	categories := Categories()
	snapshots := make([]Snapshot, len(categories))
	g, ctx := errgroup.WithContext(ctx)
	for idx, category := range categories {
		g.Go(func() error {
			account := AccountForCategory(category)
			physical, err := s.valuer.PhysicalValuation(ctx, category, asOf)
			if err != nil {
				return err
			}
			gl := tb.BalanceFor(account)
			snapshots[idx] = Snapshot{
				Category:           category,
				AccountCode:        account,
				GLBalanceMinor:     gl,
				PhysicalValueMinor: physical,
				VarianceMinor:      physical - gl,
				AsOf:               asOf,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
