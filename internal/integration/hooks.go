package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
)

// Account codes for the fixed posting patterns.
const (
	accountRawMaterials    = "1200"
	accountWIP             = "1210"
	accountFinishedGoods   = "1220"
	accountPackaging       = "1230"
	accountAccountsPayable = "2000"
	accountCOGS            = "5000"
	accountShipping        = "5010"
	accountScrap           = "5020"
)

// Ledger exposes the posting operation required by integrations.
type Ledger interface {
	Post(ctx context.Context, draft ledger.Draft) (ledger.JournalEntry, error)
}

// Hooks wires operational events into the general ledger with fixed
// double-entry patterns. Each handler derives a deterministic dedup key
// from the triggering document, so redelivered events post exactly once.
type Hooks struct {
	ledger Ledger
}

// NewHooks constructs integration hooks.
func NewHooks(l Ledger) *Hooks {
	return &Hooks{ledger: l}
}

// post swallows duplicate-posting failures: a redelivered event is a no-op.
func (h *Hooks) post(ctx context.Context, draft ledger.Draft) error {
	_, err := h.ledger.Post(ctx, draft)
	if errors.Is(err, ledger.ErrDuplicatePosting) {
		return nil
	}
	return err
}

func twoLine(debit, credit string, amountMinor int64) []ledger.DraftLine {
	return []ledger.DraftLine{
		{AccountCode: debit, Side: ledger.SideDebit, AmountMinor: amountMinor},
		{AccountCode: credit, Side: ledger.SideCredit, AmountMinor: amountMinor},
	}
}

// HandlePurchaseReceipt books DR raw materials / CR accounts payable.
func (h *Hooks) HandlePurchaseReceipt(ctx context.Context, evt PurchaseReceiptEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.ReceivedAt.IsZero() {
		return errors.New("integration: receipt date required")
	}
	if evt.AmountMinor == 0 {
		return nil
	}
	return h.post(ctx, ledger.Draft{
		PostedAt: evt.ReceivedAt,
		Source: ledger.SourceRef{
			Type: ledger.SourcePurchaseOrder,
			ID:   evt.PurchaseOrderID,
			Step: "receipt",
		},
		Memo:  fmt.Sprintf("PO receipt %s", evt.Number),
		Lines: twoLine(accountRawMaterials, accountAccountsPayable, evt.AmountMinor),
	})
}

// HandleMaterialIssue books DR WIP / CR raw materials.
func (h *Hooks) HandleMaterialIssue(ctx context.Context, evt MaterialIssueEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.IssuedAt.IsZero() {
		return errors.New("integration: issue date required")
	}
	if evt.AmountMinor == 0 {
		return nil
	}
	return h.post(ctx, ledger.Draft{
		PostedAt: evt.IssuedAt,
		Source: ledger.SourceRef{
			Type: ledger.SourceProductionOrder,
			ID:   evt.ProductionOrderID,
			Step: "material-issue",
		},
		Memo:  fmt.Sprintf("Material issue %s", evt.Number),
		Lines: twoLine(accountWIP, accountRawMaterials, evt.AmountMinor),
	})
}

// HandleQCPass books DR finished goods / CR WIP.
func (h *Hooks) HandleQCPass(ctx context.Context, evt QCPassEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.PassedAt.IsZero() {
		return errors.New("integration: QC pass date required")
	}
	if evt.AmountMinor == 0 {
		return nil
	}
	return h.post(ctx, ledger.Draft{
		PostedAt: evt.PassedAt,
		Source: ledger.SourceRef{
			Type: ledger.SourceProductionOrder,
			ID:   evt.ProductionOrderID,
			Step: "qc-pass",
		},
		Memo:  fmt.Sprintf("QC pass %s", evt.Number),
		Lines: twoLine(accountFinishedGoods, accountWIP, evt.AmountMinor),
	})
}

// HandleScrap books DR scrap expense / CR WIP.
func (h *Hooks) HandleScrap(ctx context.Context, evt ScrapEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.ScrappedAt.IsZero() {
		return errors.New("integration: scrap date required")
	}
	if evt.AmountMinor == 0 {
		return nil
	}
	return h.post(ctx, ledger.Draft{
		PostedAt: evt.ScrappedAt,
		Source: ledger.SourceRef{
			Type: ledger.SourceProductionOrder,
			ID:   evt.ProductionOrderID,
			Step: "scrap",
		},
		Memo:  fmt.Sprintf("Scrap %s", evt.Number),
		Lines: twoLine(accountScrap, accountWIP, evt.AmountMinor),
	})
}

// HandleShipment books one multi-line entry: DR COGS / CR finished goods
// plus DR shipping expense / CR packaging for the consumed materials.
func (h *Hooks) HandleShipment(ctx context.Context, evt ShipmentEvent) error {
	if h == nil || h.ledger == nil {
		return nil
	}
	if evt.ShippedAt.IsZero() {
		return errors.New("integration: shipment date required")
	}
	lines := make([]ledger.DraftLine, 0, 4)
	if evt.COGSMinor > 0 {
		lines = append(lines, twoLine(accountCOGS, accountFinishedGoods, evt.COGSMinor)...)
	}
	if evt.PackagingMinor > 0 {
		lines = append(lines, twoLine(accountShipping, accountPackaging, evt.PackagingMinor)...)
	}
	if len(lines) == 0 {
		return nil
	}
	return h.post(ctx, ledger.Draft{
		PostedAt: evt.ShippedAt,
		Source: ledger.SourceRef{
			Type: ledger.SourceSalesOrder,
			ID:   evt.SalesOrderID,
			Step: "shipment",
		},
		Memo:  fmt.Sprintf("Shipment %s", evt.Number),
		Lines: lines,
	})
}
