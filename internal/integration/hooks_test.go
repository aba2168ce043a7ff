package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

type recordingLedger struct {
	drafts []ledger.Draft
	seen   map[string]struct{}
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{seen: make(map[string]struct{})}
}

func (l *recordingLedger) Post(ctx context.Context, draft ledger.Draft) (ledger.JournalEntry, error) {
	key := draft.Source.Key()
	if _, ok := l.seen[key]; ok {
		return ledger.JournalEntry{}, fmt.Errorf("%w: %s", ledger.ErrDuplicatePosting, key)
	}
	l.seen[key] = struct{}{}
	l.drafts = append(l.drafts, draft)
	return ledger.JournalEntry{ID: int64(len(l.drafts))}, nil
}

var eventDay = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func requireTwoLine(t *testing.T, draft ledger.Draft, debit, credit string, amount int64) {
	t.Helper()
	require.Len(t, draft.Lines, 2)
	require.Equal(t, debit, draft.Lines[0].AccountCode)
	require.Equal(t, ledger.SideDebit, draft.Lines[0].Side)
	require.Equal(t, credit, draft.Lines[1].AccountCode)
	require.Equal(t, ledger.SideCredit, draft.Lines[1].Side)
	require.Equal(t, amount, draft.Lines[0].AmountMinor)
	require.Equal(t, amount, draft.Lines[1].AmountMinor)
}

func TestPurchaseReceiptPostsRawMaterialsAgainstPayable(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandlePurchaseReceipt(context.Background(), PurchaseReceiptEvent{
		PurchaseOrderID: "po-77",
		Number:          "PO-2025-077",
		AmountMinor:     125000,
		ReceivedAt:      eventDay,
	})
	require.NoError(t, err)
	require.Len(t, led.drafts, 1)

	draft := led.drafts[0]
	require.Equal(t, ledger.SourcePurchaseOrder, draft.Source.Type)
	require.Equal(t, "po-77", draft.Source.ID)
	require.Equal(t, "receipt", draft.Source.Step)
	require.Equal(t, eventDay, draft.PostedAt)
	requireTwoLine(t, draft, "1200", "2000", 125000)
}

func TestMaterialIssuePostsWIPAgainstRawMaterials(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleMaterialIssue(context.Background(), MaterialIssueEvent{
		ProductionOrderID: "prod-3",
		Number:            "MO-3",
		AmountMinor:       40000,
		IssuedAt:          eventDay,
	})
	require.NoError(t, err)
	requireTwoLine(t, led.drafts[0], "1210", "1200", 40000)
	require.Equal(t, "material-issue", led.drafts[0].Source.Step)
}

func TestQCPassPostsFinishedGoodsAgainstWIP(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleQCPass(context.Background(), QCPassEvent{
		ProductionOrderID: "prod-3",
		Number:            "MO-3",
		AmountMinor:       40000,
		PassedAt:          eventDay,
	})
	require.NoError(t, err)
	requireTwoLine(t, led.drafts[0], "1220", "1210", 40000)
}

func TestScrapPostsExpenseAgainstWIP(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleScrap(context.Background(), ScrapEvent{
		ProductionOrderID: "prod-4",
		Number:            "MO-4",
		AmountMinor:       1500,
		ScrappedAt:        eventDay,
	})
	require.NoError(t, err)
	requireTwoLine(t, led.drafts[0], "5020", "1210", 1500)
}

func TestShipmentPostsOneEntryWithBothPairs(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleShipment(context.Background(), ShipmentEvent{
		SalesOrderID:   "so-12",
		Number:         "SO-12",
		COGSMinor:      30000,
		PackagingMinor: 500,
		ShippedAt:      eventDay,
	})
	require.NoError(t, err)
	require.Len(t, led.drafts, 1)

	draft := led.drafts[0]
	require.Equal(t, ledger.SourceSalesOrder, draft.Source.Type)
	require.Equal(t, "shipment", draft.Source.Step)
	require.Len(t, draft.Lines, 4)
	require.Equal(t, "5000", draft.Lines[0].AccountCode)
	require.Equal(t, "1220", draft.Lines[1].AccountCode)
	require.Equal(t, "5010", draft.Lines[2].AccountCode)
	require.Equal(t, "1230", draft.Lines[3].AccountCode)
	require.NoError(t, draft.Validate())
}

func TestShipmentWithoutPackagingSkipsPackagingPair(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleShipment(context.Background(), ShipmentEvent{
		SalesOrderID: "so-13",
		Number:       "SO-13",
		COGSMinor:    2000,
		ShippedAt:    eventDay,
	})
	require.NoError(t, err)
	require.Len(t, led.drafts[0].Lines, 2)
}

func TestRedeliveredEventIsNoOp(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	evt := PurchaseReceiptEvent{
		PurchaseOrderID: "po-77",
		Number:          "PO-2025-077",
		AmountMinor:     125000,
		ReceivedAt:      eventDay,
	}
	require.NoError(t, hooks.HandlePurchaseReceipt(context.Background(), evt))
	require.NoError(t, hooks.HandlePurchaseReceipt(context.Background(), evt))
	require.Len(t, led.drafts, 1)
}

func TestZeroAmountEventSkipsPosting(t *testing.T) {
	led := newRecordingLedger()
	hooks := NewHooks(led)

	err := hooks.HandleMaterialIssue(context.Background(), MaterialIssueEvent{
		ProductionOrderID: "prod-9",
		Number:            "MO-9",
		AmountMinor:       0,
		IssuedAt:          eventDay,
	})
	require.NoError(t, err)
	require.Empty(t, led.drafts)
}

func TestEventRequiresDate(t *testing.T) {
	hooks := NewHooks(newRecordingLedger())
	err := hooks.HandlePurchaseReceipt(context.Background(), PurchaseReceiptEvent{
		PurchaseOrderID: "po-1",
		AmountMinor:     100,
	})
	require.Error(t, err)
}
