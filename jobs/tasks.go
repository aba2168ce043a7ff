// Package jobs holds the background task definitions and the Asynq worker.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskGLIntegrity sweeps the ledger for unbalanced books.
	TaskGLIntegrity = "gl:integrity"
	// TaskReportWarmup pre-builds the trial balance cache.
	TaskReportWarmup = "gl:report_warmup"
	// TaskReconcileSnapshot compares GL inventory balances against stock.
	TaskReconcileSnapshot = "reconcile:snapshot"
)

// DatePayload carries the report date for date-scoped jobs. A zero date
// means "today".
type DatePayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewGLIntegrityTask constructs the nightly integrity sweep task.
func NewGLIntegrityTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskGLIntegrity, nil), nil
}

// NewReportWarmupTask constructs a cache warmup task for the given date.
func NewReportWarmupTask(payload DatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

// NewReconcileSnapshotTask constructs an inventory reconciliation task.
func NewReconcileSnapshotTask(payload DatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSnapshot, data), nil
}
