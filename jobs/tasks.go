// Package jobs holds the background task definitions and the Asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockReconcile recomputes cached on-hand counters from the balance table.
	TaskStockReconcile = "stock:reconcile"
)

// Reconciler repairs drift between stock balances and product counters.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// StockReconcilePayload carries scheduling metadata.
type StockReconcilePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStockReconcileTask constructs the reconcile task.
func NewStockReconcileTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockReconcilePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockReconcile, body, asynq.Queue(QueueDefault)), nil
}

// HandleStockReconcile runs the reconciliation and logs repaired drift.
func HandleStockReconcile(logger *slog.Logger, reconciler Reconciler) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload StockReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		drift, err := reconciler.Reconcile(ctx)
		if err != nil {
			logger.Error("stock reconcile failed", slog.Any("error", err))
			return err
		}
		logger.Info("stock reconcile done", slog.Int("drift_repaired", drift))
		return nil
	}
}
