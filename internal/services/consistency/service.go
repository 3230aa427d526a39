package consistency

import (
	"context"

	"github.com/google/uuid"

	"athena/internal/domain/consistency"
	"athena/internal/domain/content"
	"athena/internal/domain/embedding"
	"athena/internal/metrics"
	pkgerrors "athena/pkg/errors"
	"athena/pkg/logger"
)

// Cleanup batches are capped to limit the blast radius of a manual
// operator action
const (
	MinCleanupBatch = 1
	MaxCleanupBatch = 50
)

// Service audits content records against the vector store. The two stores
// are only eventually consistent; the auditor reports the lag, it never
// heals missing vectors (regeneration belongs to the processing pipeline).
type Service struct {
	contentRepo    content.Repository
	embeddingStore embedding.Store
	log            *logger.Logger
}

// NewService creates a new consistency service
func NewService(
	contentRepo content.Repository,
	embeddingStore embedding.Store,
	log *logger.Logger,
) *Service {
	return &Service{
		contentRepo:    contentRepo,
		embeddingStore: embeddingStore,
		log:            log.With("service", "consistency"),
	}
}

// CheckContentConsistency audits one content item against the vector store.
// No lock is held across the two reads; a concurrent write in between
// produces a report that is corrected on the next scan.
func (s *Service) CheckContentConsistency(ctx context.Context, contentID uuid.UUID) (*consistency.Report, error) {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.ErrNotFound) {
			// The caller must distinguish "inconsistent" from "nonexistent"
			return nil, pkgerrors.Wrapf(pkgerrors.ErrContentNotFound, "content %s", contentID)
		}
		return nil, pkgerrors.Wrap(err, "failed to get content")
	}

	actual, err := s.embeddingStore.CountByContent(ctx, contentID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count vectors")
	}

	report := buildReport(contentID, c.ChunkCount, actual)
	metrics.ConsistencyChecks.WithLabelValues(string(report.Recommendation)).Inc()

	return report, nil
}

// ScanForInconsistencies audits up to limit of a user's content items, most
// recently created first, and returns only the non-OK reports. A failed
// audit becomes a synthetic report carrying its error; the rest of the
// batch still completes.
func (s *Service) ScanForInconsistencies(ctx context.Context, userID uuid.UUID, limit int) ([]*consistency.Report, error) {
	if limit <= 0 {
		return []*consistency.Report{}, nil
	}

	contents, err := s.contentRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list content")
	}

	var reports []*consistency.Report
	for _, c := range contents {
		actual, err := s.embeddingStore.CountByContent(ctx, c.ID)
		if err != nil {
			s.log.Warnw("Audit failed during scan", "content_id", c.ID, "error", err)
			reports = append(reports, &consistency.Report{
				ContentID:      c.ID,
				Recommendation: consistency.RecommendationCritical,
				Error:          err.Error(),
			})
			metrics.ConsistencyChecks.WithLabelValues("error").Inc()
			continue
		}

		report := buildReport(c.ID, c.ChunkCount, actual)
		metrics.ConsistencyChecks.WithLabelValues(string(report.Recommendation)).Inc()

		if report.Recommendation != consistency.RecommendationOK {
			reports = append(reports, report)
		}
	}

	summary := consistency.Summarize(len(contents), reports)
	s.log.Infow("Consistency scan finished",
		"user_id", userID,
		"scanned", summary.Scanned,
		"inconsistent", summary.Inconsistent,
		"critical", summary.CriticalIssues,
		"warnings", summary.Warnings,
		"consistency_rate", summary.ConsistencyRate)

	return reports, nil
}

// CleanupOrphanedVectors deletes vector-store entries whose backing content
// record no longer exists. Best-effort: per-ID failures are collected, the
// batch never aborts. Deleting entries that are already gone is a no-op.
func (s *Service) CleanupOrphanedVectors(ctx context.Context, contentIDs []uuid.UUID) (*consistency.CleanupResult, error) {
	if len(contentIDs) < MinCleanupBatch || len(contentIDs) > MaxCleanupBatch {
		return nil, pkgerrors.NewValidationError("contentIds",
			"batch size must be between 1 and 50", len(contentIDs))
	}

	result := &consistency.CleanupResult{
		Errors: []string{},
	}

	for _, id := range contentIDs {
		exists, err := s.contentRepo.ExistsByID(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, pkgerrors.Wrapf(err, "content %s", id).Error())
			continue
		}

		if exists {
			// Vectors with a live content record are not orphans
			result.Errors = append(result.Errors, "content "+id.String()+" still exists, skipping")
			continue
		}

		deleted, err := s.embeddingStore.DeleteByContent(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, pkgerrors.Wrapf(err, "content %s", id).Error())
			continue
		}

		result.CleanedCount += int(deleted)
	}

	result.Success = len(result.Errors) == 0

	if result.CleanedCount > 0 {
		metrics.OrphanVectorsCleaned.Add(float64(result.CleanedCount))
		s.log.Infow("Orphaned vectors cleaned",
			"requested", len(contentIDs),
			"cleaned", result.CleanedCount,
			"errors", len(result.Errors))
	}

	return result, nil
}

func buildReport(contentID uuid.UUID, expected, actual int) *consistency.Report {
	report := &consistency.Report{
		ContentID:           contentID,
		ExpectedVectorCount: expected,
		ActualVectorCount:   actual,
		Recommendation:      consistency.RecommendationOK,
	}

	if expected > actual {
		report.Missing = expected - actual
	}
	if actual > expected {
		report.Orphaned = actual - expected
	}

	// Missing vectors break Q&A; orphans only waste storage
	if report.Missing > 0 {
		report.Recommendation = consistency.RecommendationCritical
	} else if report.Orphaned > 0 {
		report.Recommendation = consistency.RecommendationWarning
	}

	return report
}
