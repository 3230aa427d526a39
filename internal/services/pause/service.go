package pause

import (
	"context"
	"time"

	"github.com/google/uuid"

	"athena/internal/domain/content"
	"athena/internal/events"
	pkgerrors "athena/pkg/errors"
	"athena/pkg/logger"
)

// Service tracks content whose derived-data generation was halted, typically
// because quota ran out mid-processing. The pause set is the work queue for
// the reprocessing pipeline after a quota window resets.
type Service struct {
	contentRepo content.Repository
	pauseRepo   content.PauseRepository
	publisher   *events.Publisher
	log         *logger.Logger
}

// NewService creates a new pause tracker service
func NewService(
	contentRepo content.Repository,
	pauseRepo content.PauseRepository,
	publisher *events.Publisher,
	log *logger.Logger,
) *Service {
	return &Service{
		contentRepo: contentRepo,
		pauseRepo:   pauseRepo,
		publisher:   publisher,
		log:         log.With("service", "pause"),
	}
}

// MarkContentPaused records that processing of a content item was halted.
// Marking content that is already paused keeps the original marker.
func (s *Service) MarkContentPaused(ctx context.Context, userID, contentID uuid.UUID, reason string) error {
	c, err := s.contentRepo.GetByID(ctx, contentID)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get content")
	}

	if c.UserID != userID {
		return pkgerrors.Wrap(pkgerrors.ErrUnauthorized, "content belongs to another user")
	}

	marker := &content.PausedContent{
		ID:        uuid.New(),
		UserID:    userID,
		ContentID: contentID,
		Reason:    reason,
		PausedAt:  time.Now().UTC(),
	}

	if err := s.pauseRepo.Mark(ctx, marker); err != nil {
		return pkgerrors.Wrap(err, "failed to mark content as paused")
	}

	s.log.Infow("Content paused", "user_id", userID, "content_id", contentID, "reason", reason)

	s.publisher.PublishContentPaused(ctx, events.ContentPausedEvent{
		UserID:    userID,
		ContentID: contentID,
		Reason:    reason,
		At:        marker.PausedAt,
	})

	return nil
}

// ClearPausedContent removes the pause marker once processing resumed.
// Clearing content that is not paused is a no-op.
func (s *Service) ClearPausedContent(ctx context.Context, contentID uuid.UUID) error {
	if err := s.pauseRepo.Clear(ctx, contentID); err != nil {
		return pkgerrors.Wrap(err, "failed to clear pause marker")
	}

	s.log.Debugw("Pause marker cleared", "content_id", contentID)
	return nil
}

// GetPausedContentCount returns how many content items a user has paused
func (s *Service) GetPausedContentCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.pauseRepo.CountByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to count paused content")
	}

	return count, nil
}

// ListPausedContent returns the pause markers for a user, oldest first
func (s *Service) ListPausedContent(ctx context.Context, userID uuid.UUID) ([]*content.PausedContent, error) {
	markers, err := s.pauseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list paused content")
	}

	return markers, nil
}
