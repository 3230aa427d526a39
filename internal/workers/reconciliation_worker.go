package workers

import (
	"context"
	"time"

	"athena/internal/domain/consistency"
	"athena/internal/domain/user"
	"athena/internal/metrics"
	consistencysvc "athena/internal/services/consistency"
	pkgerrors "athena/pkg/errors"
)

// ReconciliationWorker periodically audits every active user's recent
// content against the vector store. It only reports: missing vectors are
// regenerated by the processing pipeline, never here.
type ReconciliationWorker struct {
	*BaseWorker
	userRepo       user.Repository
	consistencySvc *consistencysvc.Service
	scanLimit      int
}

// NewReconciliationWorker creates a new reconciliation worker
func NewReconciliationWorker(
	userRepo user.Repository,
	consistencySvc *consistencysvc.Service,
	interval time.Duration,
	scanLimit int,
	enabled bool,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		BaseWorker:     NewBaseWorker("reconciliation", interval, enabled),
		userRepo:       userRepo,
		consistencySvc: consistencySvc,
		scanLimit:      scanLimit,
	}
}

// Run executes one reconciliation pass over all active users
func (w *ReconciliationWorker) Run(ctx context.Context) error {
	start := time.Now()

	userIDs, err := w.userRepo.ListActiveIDs(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return pkgerrors.Wrap(err, "failed to list active users")
	}

	var critical, warnings, failedUsers int
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reports, err := w.consistencySvc.ScanForInconsistencies(ctx, userID, w.scanLimit)
		if err != nil {
			// One user's scan failing must not starve the rest
			w.Log().Warnw("User scan failed", "user_id", userID, "error", err)
			failedUsers++
			continue
		}

		for _, report := range reports {
			switch report.Recommendation {
			case consistency.RecommendationCritical:
				critical++
				w.Log().Warnw("Missing vectors detected",
					"user_id", userID,
					"content_id", report.ContentID,
					"missing", report.Missing)
			case consistency.RecommendationWarning:
				warnings++
			}
		}
	}

	metrics.ScanDuration.WithLabelValues("worker").Observe(time.Since(start).Seconds())
	w.RecordRun(time.Since(start))

	w.Log().Infow("Reconciliation pass finished",
		"users", len(userIDs),
		"failed_users", failedUsers,
		"critical", critical,
		"warnings", warnings,
		"duration", time.Since(start))

	return nil
}
