package integration

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
)

// Handler is the event intake for the operational subsystems. Producers
// retry on 5xx; every event carries a document id that doubles as the dedup
// key, so redelivery is safe.
type Handler struct {
	logger   *slog.Logger
	hooks    *Hooks
	validate *validator.Validate
	onPosted func()
}

// NewHandler builds the intake. onPosted runs after accepted events and may
// be nil.
func NewHandler(logger *slog.Logger, hooks *Hooks, onPosted func()) *Handler {
	return &Handler{logger: logger, hooks: hooks, validate: validator.New(), onPosted: onPosted}
}

// MountRoutes registers the event intake routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/integration/events/purchase-receipt", h.PurchaseReceipt)
	r.Post("/integration/events/material-issue", h.MaterialIssue)
	r.Post("/integration/events/qc-pass", h.QCPass)
	r.Post("/integration/events/scrap", h.Scrap)
	r.Post("/integration/events/shipment", h.Shipment)
}

type purchaseReceiptRequest struct {
	PurchaseOrderID string    `json:"purchase_order_id" validate:"required"`
	Number          string    `json:"number" validate:"required"`
	AmountMinor     int64     `json:"amount_minor" validate:"gte=0"`
	ReceivedAt      time.Time `json:"received_at" validate:"required"`
}

type productionEventRequest struct {
	ProductionOrderID string    `json:"production_order_id" validate:"required"`
	Number            string    `json:"number" validate:"required"`
	AmountMinor       int64     `json:"amount_minor" validate:"gte=0"`
	OccurredAt        time.Time `json:"occurred_at" validate:"required"`
}

type shipmentRequest struct {
	SalesOrderID   string    `json:"sales_order_id" validate:"required"`
	Number         string    `json:"number" validate:"required"`
	COGSMinor      int64     `json:"cogs_minor" validate:"gte=0"`
	PackagingMinor int64     `json:"packaging_minor" validate:"gte=0"`
	ShippedAt      time.Time `json:"shipped_at" validate:"required"`
}

// PurchaseReceipt accepts a purchase order receipt event.
func (h *Handler) PurchaseReceipt(w http.ResponseWriter, r *http.Request) {
	var req purchaseReceiptRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, h.hooks.HandlePurchaseReceipt(r.Context(), PurchaseReceiptEvent(req)))
}

// MaterialIssue accepts a material issue event.
func (h *Handler) MaterialIssue(w http.ResponseWriter, r *http.Request) {
	var req productionEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, h.hooks.HandleMaterialIssue(r.Context(), MaterialIssueEvent{
		ProductionOrderID: req.ProductionOrderID,
		Number:            req.Number,
		AmountMinor:       req.AmountMinor,
		IssuedAt:          req.OccurredAt,
	}))
}

// QCPass accepts a quality control pass event.
func (h *Handler) QCPass(w http.ResponseWriter, r *http.Request) {
	var req productionEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, h.hooks.HandleQCPass(r.Context(), QCPassEvent{
		ProductionOrderID: req.ProductionOrderID,
		Number:            req.Number,
		AmountMinor:       req.AmountMinor,
		PassedAt:          req.OccurredAt,
	}))
}

// Scrap accepts a scrap event.
func (h *Handler) Scrap(w http.ResponseWriter, r *http.Request) {
	var req productionEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, h.hooks.HandleScrap(r.Context(), ScrapEvent{
		ProductionOrderID: req.ProductionOrderID,
		Number:            req.Number,
		AmountMinor:       req.AmountMinor,
		ScrappedAt:        req.OccurredAt,
	}))
}

// Shipment accepts an order shipment event.
func (h *Handler) Shipment(w http.ResponseWriter, r *http.Request) {
	var req shipmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, h.hooks.HandleShipment(r.Context(), ShipmentEvent(req)))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) accept(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		if h.onPosted != nil {
			h.onPosted()
		}
		w.WriteHeader(http.StatusAccepted)
	case errors.Is(err, ledger.ErrPeriodClosed):
		httpx.Problem(w, http.StatusConflict, "Period Closed", err.Error())
	case errors.Is(err, ledger.ErrPeriodNotFound):
		httpx.Problem(w, http.StatusConflict, "Period Not Found", err.Error())
	case ledger.IsTransient(err):
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "redeliver the event")
	default:
		h.logger.Error("integration intake", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
