package reconcile

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/printforge-erp/printforge-erp/internal/ledger"
	"github.com/printforge-erp/printforge-erp/internal/platform/httpx"
	"github.com/printforge-erp/printforge-erp/internal/shared"
)

// Handler exposes the inventory reconciliation report.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the reconciliation route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/reports/reconciliation", h.Inventory)
}

type snapshotResponse struct {
	Category      Category `json:"category"`
	AccountCode   string   `json:"account_code"`
	GLBalance     int64    `json:"gl_balance_minor"`
	PhysicalValue int64    `json:"physical_value_minor"`
	Variance      int64    `json:"variance_minor"`
	AsOf          string   `json:"as_of"`
}

// Inventory reports GL-vs-physical variance per inventory category.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor required")
		return
	}
	if !actor.CanViewReports() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "report access requires a paid tier")
		return
	}
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	snapshots, err := h.service.Reconcile(r.Context(), asOf)
	if err != nil {
		if ledger.IsTransient(err) {
			httpx.Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "retry shortly")
			return
		}
		h.logger.Error("reconcile handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]snapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, snapshotResponse{
			Category:      snap.Category,
			AccountCode:   snap.AccountCode,
			GLBalance:     snap.GLBalanceMinor,
			PhysicalValue: snap.PhysicalValueMinor,
			Variance:      snap.VarianceMinor,
			AsOf:          snap.AsOf.Format("2006-01-02"),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
