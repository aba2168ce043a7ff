package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/printforge-erp/printforge-erp/internal/testing/guard"

	"github.com/printforge-erp/printforge-erp/internal/integration"
	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
	"github.com/printforge-erp/printforge-erp/internal/ledger/reports"
)

// bookStore is an in-memory ledger store backing the full posting flow:
// events in, journal entries out, report aggregates derived from the same
// committed lines the SQL repository would sum.
type bookStore struct {
	accounts map[string]ledger.Account
	periods  []periods.Period
	entries  map[int64]ledger.JournalEntry
	links    map[string]int64
	nextID   int64
}

func newBookStore() *bookStore {
	return &bookStore{
		accounts: make(map[string]ledger.Account),
		entries:  make(map[int64]ledger.JournalEntry),
		links:    make(map[string]int64),
	}
}

func (s *bookStore) addAccount(code, name string, typ ledger.AccountType) {
	s.accounts[code] = ledger.Account{Code: code, Name: name, Type: typ, IsActive: true}
}

func (s *bookStore) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return fn(ctx, &bookTx{store: s})
}

func (s *bookStore) ListEntries(ctx context.Context, limit, offset int) ([]ledger.JournalEntry, error) {
	out := make([]ledger.JournalEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

func (s *bookStore) CountEntries(ctx context.Context) (int, error) {
	return len(s.entries), nil
}

// accountTotals sums committed lines per account, every registered account
// included, mirroring the report repository's aggregate query.
func (s *bookStore) accountTotals() []reports.AccountTotal {
	byCode := make(map[string]*reports.AccountTotal, len(s.accounts))
	for code, acc := range s.accounts {
		byCode[code] = &reports.AccountTotal{Code: code, Name: acc.Name, Type: acc.Type}
	}
	for _, entry := range s.entries {
		for _, line := range entry.Lines {
			total := byCode[line.AccountCode]
			if line.Side == ledger.SideDebit {
				total.DebitMinor += line.AmountMinor
			} else {
				total.CreditMinor += line.AmountMinor
			}
		}
	}
	out := make([]reports.AccountTotal, 0, len(byCode))
	for _, total := range byCode {
		out = append(out, *total)
	}
	return out
}

type bookTx struct {
	store *bookStore
}

func (tx *bookTx) ResolveAccounts(ctx context.Context, codes []string) (map[string]ledger.Account, error) {
	out := make(map[string]ledger.Account, len(codes))
	for _, code := range codes {
		if acc, ok := tx.store.accounts[code]; ok {
			out[code] = acc
		}
	}
	return out, nil
}

func (tx *bookTx) GetPeriodByDateForUpdate(ctx context.Context, date time.Time) (periods.Period, error) {
	for _, p := range tx.store.periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, ledger.ErrPeriodNotFound
}

func (tx *bookTx) InsertEntry(ctx context.Context, periodID int64, draft ledger.Draft, postedAt time.Time) (ledger.JournalEntry, error) {
	tx.store.nextID++
	entry := ledger.JournalEntry{
		ID:       tx.store.nextID,
		PeriodID: periodID,
		PostedAt: postedAt,
		Source:   draft.Source,
		Memo:     draft.Memo,
		PostedBy: draft.PostedBy,
	}
	tx.store.entries[entry.ID] = entry
	return entry, nil
}

func (tx *bookTx) InsertLines(ctx context.Context, entryID int64, lines []ledger.DraftLine) ([]ledger.JournalLine, error) {
	out := make([]ledger.JournalLine, 0, len(lines))
	for idx, line := range lines {
		out = append(out, ledger.JournalLine{
			ID:          int64(idx + 1),
			EntryID:     entryID,
			AccountCode: line.AccountCode,
			Side:        line.Side,
			AmountMinor: line.AmountMinor,
		})
	}
	entry := tx.store.entries[entryID]
	entry.Lines = out
	tx.store.entries[entryID] = entry
	return out, nil
}

func (tx *bookTx) LinkSource(ctx context.Context, ref ledger.SourceRef, entryID int64) error {
	if _, ok := tx.store.links[ref.Key()]; ok {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicatePosting, ref.Key())
	}
	tx.store.links[ref.Key()] = entryID
	return nil
}

func (tx *bookTx) GetEntryWithLines(ctx context.Context, entryID int64) (ledger.JournalEntry, error) {
	entry, ok := tx.store.entries[entryID]
	if !ok {
		return ledger.JournalEntry{}, ledger.ErrEntryNotFound
	}
	return entry, nil
}

// TestReceiptAndIssueRollUpToBalancedTrialBalance drives the month-one
// walkthrough end to end: a 1000.00 material receipt and a 400.00 issue to
// production arrive as integration events, post through the engine, and the
// committed lines roll up to a balanced trial balance of 600.00 raw
// materials, 400.00 WIP and 1000.00 accounts payable.
func TestReceiptAndIssueRollUpToBalancedTrialBalance(t *testing.T) {
	store := newBookStore()
	store.addAccount("1200", "Raw Materials Inventory", ledger.AccountTypeAsset)
	store.addAccount("1210", "Work In Progress", ledger.AccountTypeAsset)
	store.addAccount("2000", "Accounts Payable", ledger.AccountTypeLiability)
	store.periods = append(store.periods, periods.Period{
		ID:        1,
		Code:      "2025-03",
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    periods.StatusOpen,
	})

	engine := ledger.NewService(store, nil)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	engine.WithNow(func() time.Time { return now })
	hooks := integration.NewHooks(engine)
	ctx := context.Background()

	err := hooks.HandlePurchaseReceipt(ctx, integration.PurchaseReceiptEvent{
		PurchaseOrderID: "po-77",
		Number:          "PO-2025-077",
		AmountMinor:     100000,
		ReceivedAt:      now,
	})
	if err != nil {
		t.Fatalf("receipt: %v", err)
	}
	err = hooks.HandleMaterialIssue(ctx, integration.MaterialIssueEvent{
		ProductionOrderID: "prod-12",
		Number:            "PRN-2025-012",
		AmountMinor:       40000,
		IssuedAt:          now,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got, _ := store.CountEntries(ctx); got != 2 {
		t.Fatalf("committed entries = %d, want 2", got)
	}

	tb := reports.BuildTrialBalance(now, store.accountTotals())
	if !tb.IsBalanced {
		t.Fatalf("trial balance not balanced: debits %d credits %d", tb.TotalDebitMinor, tb.TotalCreditMinor)
	}
	if tb.TotalDebitMinor != 100000 || tb.TotalCreditMinor != 100000 {
		t.Fatalf("column totals = %d/%d, want 100000/100000", tb.TotalDebitMinor, tb.TotalCreditMinor)
	}

	wantBalances := map[string][2]int64{
		"1200": {60000, 0},
		"1210": {40000, 0},
		"2000": {0, 100000},
	}
	for _, row := range tb.Rows {
		want, ok := wantBalances[row.Code]
		if !ok {
			t.Fatalf("unexpected account %s in trial balance", row.Code)
		}
		if row.BalanceDebitMinor != want[0] || row.BalanceCreditMinor != want[1] {
			t.Fatalf("account %s balance = %d/%d, want %d/%d",
				row.Code, row.BalanceDebitMinor, row.BalanceCreditMinor, want[0], want[1])
		}
		delete(wantBalances, row.Code)
	}
	if len(wantBalances) != 0 {
		t.Fatalf("accounts missing from trial balance: %v", wantBalances)
	}
}
