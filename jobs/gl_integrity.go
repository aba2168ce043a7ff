package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/printforge-erp/printforge-erp/internal/jobs"
	"github.com/printforge-erp/printforge-erp/internal/ledger/reports"
	"github.com/printforge-erp/printforge-erp/internal/observability"
	"github.com/printforge-erp/printforge-erp/internal/reconcile"
)

// GLIntegrityHandler runs the nightly debit/credit sweep. The posting path
// guarantees balance per entry; this catches direct database edits and
// migration mistakes.
type GLIntegrityHandler struct {
	Reports *reports.Service
	Metrics *observability.Metrics
	Jobs    *jobmetrics.Metrics
	Logger  *slog.Logger
}

// Handle processes TaskGLIntegrity tasks.
func (h *GLIntegrityHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := h.Jobs.Track("gl_integrity")
	tb, err := h.Reports.TrialBalance(ctx, time.Now().UTC())
	if err != nil {
		return tracker.End(err)
	}
	h.Metrics.SetBooksUnbalanced(!tb.IsBalanced)
	if !tb.IsBalanced {
		h.Logger.Error("gl integrity sweep found unbalanced books",
			slog.Int64("total_debit_minor", tb.TotalDebitMinor),
			slog.Int64("total_credit_minor", tb.TotalCreditMinor))
		return tracker.End(nil)
	}
	h.Logger.Info("gl integrity sweep clean", slog.Int("accounts", len(tb.Rows)))
	return tracker.End(nil)
}

// ReportWarmupHandler pre-builds the trial balance so the first morning
// request hits the cache.
type ReportWarmupHandler struct {
	Reports *reports.Service
	Jobs    *jobmetrics.Metrics
	Logger  *slog.Logger
}

// Handle processes TaskReportWarmup tasks.
func (h *ReportWarmupHandler) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.Jobs.Track("report_warmup")
	asOf := time.Now().UTC()
	var payload DatePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if !payload.AsOf.IsZero() {
			asOf = payload.AsOf
		}
	}
	if _, err := h.Reports.TrialBalance(ctx, asOf); err != nil {
		return tracker.End(err)
	}
	h.Logger.Info("trial balance cache warmed", slog.Time("as_of", asOf))
	return tracker.End(nil)
}

// ReconcileSnapshotHandler logs the GL-vs-physical inventory variance so
// drift shows up in the morning logs before anyone opens the report.
type ReconcileSnapshotHandler struct {
	Reconciler *reconcile.Service
	Jobs       *jobmetrics.Metrics
	Logger     *slog.Logger
}

// Handle processes TaskReconcileSnapshot tasks.
func (h *ReconcileSnapshotHandler) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.Jobs.Track("reconcile_snapshot")
	asOf := time.Now().UTC()
	var payload DatePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if !payload.AsOf.IsZero() {
			asOf = payload.AsOf
		}
	}
	snapshots, err := h.Reconciler.Reconcile(ctx, asOf)
	if err != nil {
		return tracker.End(err)
	}
	for _, snap := range snapshots {
		level := slog.LevelInfo
		if snap.VarianceMinor != 0 {
			level = slog.LevelWarn
		}
		h.Logger.Log(ctx, level, "inventory reconciliation",
			slog.String("category", string(snap.Category)),
			slog.String("account", snap.AccountCode),
			slog.Int64("gl_minor", snap.GLBalanceMinor),
			slog.Int64("physical_minor", snap.PhysicalValueMinor),
			slog.Int64("variance_minor", snap.VarianceMinor))
	}
	return tracker.End(nil)
}
