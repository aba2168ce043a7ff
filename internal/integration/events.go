package integration

import "time"

// Events emitted by the operational subsystems. They are declared here so
// the ledger core never depends on the producing modules' types; the source
// document is referenced by id only and resolved lazily by its owner.

// PurchaseReceiptEvent fires when a purchase order delivery is received.
type PurchaseReceiptEvent struct {
	PurchaseOrderID string
	Number          string
	AmountMinor     int64
	ReceivedAt      time.Time
}

// MaterialIssueEvent fires when raw material is issued to a printer.
type MaterialIssueEvent struct {
	ProductionOrderID string
	Number            string
	AmountMinor       int64
	IssuedAt          time.Time
}

// QCPassEvent fires when a finished print passes quality control.
type QCPassEvent struct {
	ProductionOrderID string
	Number            string
	AmountMinor       int64
	PassedAt          time.Time
}

// ScrapEvent fires when a print fails quality control and is scrapped.
type ScrapEvent struct {
	ProductionOrderID string
	Number            string
	AmountMinor       int64
	ScrappedAt        time.Time
}

// ShipmentEvent fires when an order ships. COGS relieves finished goods;
// packaging consumption books to shipping expense.
type ShipmentEvent struct {
	SalesOrderID   string
	Number         string
	COGSMinor      int64
	PackagingMinor int64
	ShippedAt      time.Time
}
