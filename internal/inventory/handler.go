package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
	"github.com/printforge-erp/printforge-erp/internal/reconcile"
	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// Handler records physical stock movements.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/inventory/movements", h.RecordMovement)
}

type movementRequest struct {
	Category      string     `json:"category" validate:"required,oneof=RAW_MATERIALS WIP FINISHED_GOODS PACKAGING"`
	ItemCode      string     `json:"item_code" validate:"required"`
	Qty           float64    `json:"qty" validate:"required"`
	UnitCostMinor int64      `json:"unit_cost_minor" validate:"gte=0"`
	MovedAt       *time.Time `json:"moved_at,omitempty"`
	Note          string     `json:"note,omitempty"`
}

type movementResponse struct {
	ID            int64     `json:"id"`
	Category      string    `json:"category"`
	ItemCode      string    `json:"item_code"`
	Qty           float64   `json:"qty"`
	UnitCostMinor int64     `json:"unit_cost_minor"`
	MovedAt       time.Time `json:"moved_at"`
	Note          string    `json:"note,omitempty"`
}

// RecordMovement books one stock change.
func (h *Handler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.ActorFromContext(r.Context()); !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in := MovementInput{
		Category:      reconcile.Category(req.Category),
		ItemCode:      req.ItemCode,
		Qty:           req.Qty,
		UnitCostMinor: req.UnitCostMinor,
		Note:          req.Note,
	}
	if req.MovedAt != nil {
		in.MovedAt = *req.MovedAt
	}
	movement, err := h.service.RecordMovement(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownCategory), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Movement", err.Error())
		default:
			h.logger.Error("inventory handler", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, movementResponse{
		ID:            movement.ID,
		Category:      string(movement.Category),
		ItemCode:      movement.ItemCode,
		Qty:           movement.Qty,
		UnitCostMinor: movement.UnitCostMinor,
		MovedAt:       movement.MovedAt,
		Note:          movement.Note,
	})
}
