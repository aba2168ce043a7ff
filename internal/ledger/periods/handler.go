package periods

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/printforge-erp/printforge-erp/internal/observability"
	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// Handler exposes fiscal period management over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// WithMetrics attaches transition counters.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/periods", h.List)
	r.Post("/finance/periods", h.Create)
	r.Post("/finance/periods/{id}/close", h.Close)
	r.Post("/finance/periods/{id}/reopen", h.Reopen)
}

type createRequest struct {
	Code      string `json:"code" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type periodResponse struct {
	ID         int64      `json:"id"`
	Code       string     `json:"code"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Status     Status     `json:"status"`
	ClosedBy   *int64     `json:"closed_by,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ReopenedBy *int64     `json:"reopened_by,omitempty"`
	ReopenedAt *time.Time `json:"reopened_at,omitempty"`
}

func toResponse(p Period) periodResponse {
	return periodResponse{
		ID:         p.ID,
		Code:       p.Code,
		StartDate:  p.StartDate.Format("2006-01-02"),
		EndDate:    p.EndDate.Format("2006-01-02"),
		Status:     p.Status,
		ClosedBy:   p.ClosedBy,
		ClosedAt:   p.ClosedAt,
		ReopenedBy: p.ReopenedBy,
		ReopenedAt: p.ReopenedAt,
	}
}

// List returns all periods ordered by start date.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := make([]periodResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Create registers a new fiscal period.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)
	period, err := h.service.Create(r.Context(), CreateInput{
		Code:      req.Code,
		StartDate: start,
		EndDate:   end,
		ActorID:   actor.ID,
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(period))
}

// Close freezes an open period. Closing is a separate grant from reopening,
// so month-end operators do not automatically hold the reopen key.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	if !actor.AllowClose {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.ErrCloseNotAuthorized.Error())
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	period, err := h.service.Close(r.Context(), id, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.metrics.RecordPeriodTransition(string(StatusClosed))
	httpx.JSON(w, http.StatusOK, toResponse(period))
}

// Reopen flips a closed period back to open. The reopen capability is a
// separate grant from close.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	if !actor.AllowReopen {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", shared.ErrReopenNotAuthorized.Error())
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	period, err := h.service.Reopen(r.Context(), id, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.metrics.RecordPeriodTransition(string(StatusOpen))
	httpx.JSON(w, http.StatusOK, toResponse(period))
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Period Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrOverlap), errors.Is(err, ErrGap):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Period Range", err.Error())
	case errors.Is(err, ErrNoEntries), errors.Is(err, ErrEntriesUnbalanced):
		httpx.Problem(w, http.StatusConflict, "Close Rejected", err.Error())
	default:
		h.logger.Error("periods handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
