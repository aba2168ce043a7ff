package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// RepositoryPort abstracts the report reads.
type RepositoryPort interface {
	AccountTotals(ctx context.Context, asOf time.Time) ([]AccountTotal, error)
	Account(ctx context.Context, code string) (ledger.Account, error)
	OpeningTotals(ctx context.Context, code string, before time.Time) (debitMinor, creditMinor int64, err error)
	AccountLines(ctx context.Context, code string, from, to time.Time) ([]LedgerLine, error)
}

// Service derives trial balances and per-account ledgers from the line
// history. Balances are recomputed on read; ledger volume on a single farm
// stays small enough that a materialized running total is not worth the
// reconciliation burden.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService constructs the query service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// TrialBalance reports every account's balance as of the given date.
// Concurrent identical requests share one build via singleflight; results
// are cached briefly.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	key := fmt.Sprintf("tb:%s", asOf.UTC().Format(time.RFC3339))
	if s.cache != nil {
		if tb, ok := s.cache.GetTrialBalance(ctx, key); ok {
			return tb, nil
		}
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		totals, err := s.repo.AccountTotals(ctx, asOf)
		if err != nil {
			return TrialBalance{}, err
		}
		tb := BuildTrialBalance(asOf, totals)
		if s.cache != nil {
			s.cache.SetTrialBalance(ctx, key, tb)
		}
		return tb, nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return result.(TrialBalance), nil
}

// Ledger builds the per-account ledger over [from, to]. The opening balance
// is the account's net position immediately prior to the range.
func (s *Service) Ledger(ctx context.Context, code string, from, to time.Time) (LedgerReport, error) {
	account, err := s.repo.Account(ctx, code)
	if err != nil {
		return LedgerReport{}, err
	}
	debit, credit, err := s.repo.OpeningTotals(ctx, code, from)
	if err != nil {
		return LedgerReport{}, err
	}
	opening := debit - credit
	if account.NormalBalance() == ledger.SideCredit {
		opening = credit - debit
	}
	lines, err := s.repo.AccountLines(ctx, code, from, to)
	if err != nil {
		return LedgerReport{}, err
	}
	return BuildLedger(account, from, to, opening, lines), nil
}

// Invalidate drops cached reports. Called after postings and period
// transitions mutate the ledger.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Bust(ctx)
	}
}
