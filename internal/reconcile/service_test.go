package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/ledger/reports"
)

type stubBalances struct {
	tb  reports.TrialBalance
	err error
}

func (s stubBalances) TrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error) {
	return s.tb, s.err
}

type stubValuer struct {
	values map[Category]int64
	err    error
}

func (s stubValuer) PhysicalValuation(ctx context.Context, category Category, asOf time.Time) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.values[category], nil
}

func glBalances(raw, wip, finished, packaging int64) reports.TrialBalance {
	build := func(code string, minor int64) reports.TrialBalanceRow {
		return reports.TrialBalanceRow{Code: code, Type: ledger.AccountTypeAsset, BalanceDebitMinor: minor}
	}
	return reports.TrialBalance{Rows: []reports.TrialBalanceRow{
		build("1200", raw),
		build("1210", wip),
		build("1220", finished),
		build("1230", packaging),
	}}
}

func TestReconcileComputesVariancePerCategory(t *testing.T) {
	balances := stubBalances{tb: glBalances(60000, 40000, 25000, 8000)}
	valuer := stubValuer{values: map[Category]int64{
		CategoryRawMaterials:  55000, // physical short by 50.00
		CategoryWIP:           40000,
		CategoryFinishedGoods: 26000, // physical over by 10.00
		CategoryPackaging:     8000,
	}}
	svc := NewService(balances, valuer)

	asOf := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	snapshots, err := svc.Reconcile(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, snapshots, 4)

	byCategory := make(map[Category]Snapshot, len(snapshots))
	for _, snap := range snapshots {
		byCategory[snap.Category] = snap
	}

	require.Equal(t, int64(-5000), byCategory[CategoryRawMaterials].VarianceMinor)
	require.Equal(t, int64(0), byCategory[CategoryWIP].VarianceMinor)
	require.Equal(t, int64(1000), byCategory[CategoryFinishedGoods].VarianceMinor)
	require.Equal(t, int64(0), byCategory[CategoryPackaging].VarianceMinor)

	require.Equal(t, "1200", byCategory[CategoryRawMaterials].AccountCode)
	require.Equal(t, asOf, byCategory[CategoryRawMaterials].AsOf)
}

func TestReconcileKeepsReportOrder(t *testing.T) {
	svc := NewService(stubBalances{tb: glBalances(0, 0, 0, 0)}, stubValuer{})

	snapshots, err := svc.Reconcile(context.Background(), time.Now())
	require.NoError(t, err)

	var categories []Category
	for _, snap := range snapshots {
		categories = append(categories, snap.Category)
	}
	require.Equal(t, Categories(), categories)
}

func TestReconcilePropagatesValuerError(t *testing.T) {
	wanted := errors.New("scale offline")
	svc := NewService(stubBalances{tb: glBalances(0, 0, 0, 0)}, stubValuer{err: wanted})

	_, err := svc.Reconcile(context.Background(), time.Now())
	require.ErrorIs(t, err, wanted)
}

func TestReconcilePropagatesBalanceError(t *testing.T) {
	wanted := errors.New("db down")
	svc := NewService(stubBalances{err: wanted}, stubValuer{})

	_, err := svc.Reconcile(context.Background(), time.Now())
	require.ErrorIs(t, err, wanted)
}

func TestAccountForCategory(t *testing.T) {
	require.Equal(t, "1200", AccountForCategory(CategoryRawMaterials))
	require.Equal(t, "1210", AccountForCategory(CategoryWIP))
	require.Equal(t, "1220", AccountForCategory(CategoryFinishedGoods))
	require.Equal(t, "1230", AccountForCategory(CategoryPackaging))
	require.Empty(t, AccountForCategory(Category("FILAMENT")))
}
