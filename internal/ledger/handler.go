package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/printforge-erp/printforge-erp/internal/ledger/periods"
	"github.com/printforge-erp/printforge-erp/internal/observability"
	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// AccountRegistry is the chart-of-accounts collaborator consumed by the
// listing endpoint. Declared here so the registry package can depend on the
// ledger types without a cycle.
type AccountRegistry interface {
	List(ctx context.Context) ([]Account, error)
}

// Handler wires the journal and account registry endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	registry AccountRegistry
	validate *validator.Validate
	onPosted func()
	metrics  *observability.Metrics
}

// NewHandler builds a Handler. onPosted runs after every committed post,
// typically to bust report caches; it may be nil.
func NewHandler(logger *slog.Logger, service *Service, registry AccountRegistry, onPosted func()) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		registry: registry,
		validate: validator.New(),
		onPosted: onPosted,
	}
}

// WithMetrics attaches posting counters.
func (h *Handler) WithMetrics(m *observability.Metrics) *Handler {
	h.metrics = m
	return h
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/accounts", h.ListAccounts)
	r.Get("/finance/journals", h.ListEntries)
	r.Get("/finance/journals/{id}", h.GetEntry)
	r.Post("/finance/journals", h.PostEntry)
	r.Post("/finance/journals/{id}/reverse", h.ReverseEntry)
}

// ListAccounts returns the chart of accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.registry.List(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type entryListResponse struct {
	Entries    []EntryResponse   `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

// ListEntries returns one page of committed entries, newest first.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	entries, pagination, err := h.service.ListEntries(r.Context(), page, perPage)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	out := entryListResponse{
		Entries:    make([]EntryResponse, 0, len(entries)),
		Pagination: pagination,
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, ToEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

// GetEntry returns one entry with lines.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToEntryResponse(entry))
}

// PostEntry posts a manual adjustment. Retryable callers supply source_id
// and step as their dedup key; when omitted a fresh key is generated and
// the request is not idempotent.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	var req PostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Backdated && !actor.AllowBackdate {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "backdated posting requires elevated capability")
		return
	}
	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	step := req.Step
	if step == "" {
		step = "adjust"
	}
	draft := Draft{
		Source: SourceRef{
			Type: SourceManualAdjustment,
			ID:   sourceID,
			Step: step,
		},
		Memo:      req.Memo,
		PostedBy:  actor.ID,
		Backdated: req.Backdated,
		Lines:     make([]DraftLine, 0, len(req.Lines)),
	}
	if req.PostedAt != nil {
		draft.PostedAt = *req.PostedAt
	}
	for _, line := range req.Lines {
		draft.Lines = append(draft.Lines, DraftLine{
			AccountCode: line.AccountCode,
			Side:        Side(line.Side),
			AmountMinor: line.AmountMinor,
		})
	}
	entry, err := h.service.Post(r.Context(), draft)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.metrics.RecordPosting(string(SourceManualAdjustment))
	if h.onPosted != nil {
		h.onPosted()
	}
	httpx.JSON(w, http.StatusCreated, ToEntryResponse(entry))
}

// ReverseEntry posts the offsetting entry for a committed entry.
func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	// The body is optional; a missing memo falls back to the default.
	var req ReverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		req = ReverseRequest{}
	}
	entry, err := h.service.Reverse(r.Context(), ReverseInput{EntryID: id, ActorID: actor.ID, Memo: req.Memo})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.metrics.RecordPosting(string(SourceReversal))
	if h.onPosted != nil {
		h.onPosted()
	}
	httpx.JSON(w, http.StatusCreated, ToEntryResponse(entry))
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownAccount):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Account", err.Error())
	case errors.Is(err, ErrMalformedEntry), errors.Is(err, ErrUnbalancedEntry):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Entry", err.Error())
	case errors.Is(err, ErrPeriodClosed):
		httpx.Problem(w, http.StatusConflict, "Period Closed", err.Error())
	case errors.Is(err, ErrPeriodNotFound), errors.Is(err, periods.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Period Not Found", err.Error())
	case errors.Is(err, ErrDuplicatePosting):
		h.metrics.RecordDuplicate()
		httpx.Problem(w, http.StatusConflict, "Duplicate Posting", err.Error())
	case errors.Is(err, ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case IsTransient(err):
		httpx.Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "retry with the same dedup key")
	default:
		h.logger.Error("ledger handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
