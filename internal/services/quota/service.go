package quota

import (
	"context"
	"time"

	"github.com/google/uuid"

	"athena/internal/domain/ledger"
	"athena/internal/domain/quota"
	"athena/internal/domain/user"
	"athena/internal/events"
	"athena/internal/metrics"
	pkgerrors "athena/pkg/errors"
	"athena/pkg/logger"
)

// Service is the quota accountant: it decides whether a user may make an AI
// API call and records the outcome of every attempt.
type Service struct {
	windowRepo quota.WindowRepository
	userRepo   user.Repository
	ledgerRepo ledger.Repository
	publisher  *events.Publisher
	limits     map[quota.Tier]quota.TierLimits
	providers  map[string]bool
	weekLength time.Duration
	log        *logger.Logger
}

// NewService creates a new quota service
func NewService(
	windowRepo quota.WindowRepository,
	userRepo user.Repository,
	ledgerRepo ledger.Repository,
	publisher *events.Publisher,
	limits map[quota.Tier]quota.TierLimits,
	providers []string,
	weekLength time.Duration,
	log *logger.Logger,
) *Service {
	known := make(map[string]bool, len(providers))
	for _, p := range providers {
		known[p] = true
	}

	return &Service{
		windowRepo: windowRepo,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		publisher:  publisher,
		limits:     limits,
		providers:  known,
		weekLength: weekLength,
		log:        log.With("service", "quota"),
	}
}

// CanMakeRequest checks whether a user may call the given provider right now.
// Read-only: it never mutates counters, so callers can poll it freely.
// A denial is returned as a decision with Allowed=false, not as an error.
func (s *Service) CanMakeRequest(ctx context.Context, userID uuid.UUID, provider string, requestType string) (*quota.AdmissionDecision, error) {
	if !s.providers[provider] {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrUnknownProvider, "provider %q", provider)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	limits := quota.LimitsFor(s.limits, u.Tier)

	window, err := s.windowRepo.Peek(ctx, userID, provider, limits.WindowLength)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to peek usage window")
	}

	if window.Count >= limits.RequestsPerWindow {
		metrics.RecordAdmission(provider, false)
		return &quota.AdmissionDecision{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   window.WindowEnd,
			Reason:    quota.ReasonQuotaExceeded,
		}, nil
	}

	// Questions are additionally bounded by the coarse weekly counter
	if requestType == ledger.TypeQuestion {
		weekly, err := s.windowRepo.WeeklyPeek(ctx, userID, s.weekLength)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to peek weekly counter")
		}

		if weekly.Count >= limits.WeeklyQuestionLimit {
			metrics.RecordAdmission(provider, false)
			return &quota.AdmissionDecision{
				Allowed:   false,
				Remaining: 0,
				ResetAt:   weekly.ResetAt,
				Reason:    quota.ReasonWeeklyQuotaExceeded,
			}, nil
		}
	}

	metrics.RecordAdmission(provider, true)
	return &quota.AdmissionDecision{
		Allowed:   true,
		Remaining: limits.RequestsPerWindow - window.Count,
		ResetAt:   window.WindowEnd,
	}, nil
}

// RecordUsage records one AI API call attempt. The ledger entry is written
// for every attempt regardless of outcome; the usage window is advanced only
// for attempts that actually reached the provider.
func (s *Service) RecordUsage(ctx context.Context, entry *ledger.Entry) error {
	if !s.providers[entry.Provider] {
		return pkgerrors.Wrapf(pkgerrors.ErrUnknownProvider, "provider %q", entry.Provider)
	}

	if entry.EventID == "" {
		entry.EventID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = entry.Timestamp
	}

	if err := s.ledgerRepo.Store(ctx, entry); err != nil {
		return pkgerrors.Wrap(err, "failed to store ledger entry")
	}

	metrics.RequestsRecorded.WithLabelValues(entry.Provider, string(entry.Status)).Inc()

	userID, err := uuid.Parse(entry.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrInvalidInput, "invalid user id in ledger entry")
	}

	if !entry.Status.Consumed() {
		// Denied pre-emptively; nothing was spent against the window
		s.publisher.PublishQuotaExceeded(ctx, events.QuotaExceededEvent{
			UserID:   userID,
			Provider: entry.Provider,
			At:       time.Now().UTC(),
		})
		return nil
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get user")
	}

	limits := quota.LimitsFor(s.limits, u.Tier)

	window, applied, err := s.windowRepo.IncrementIfUnder(ctx, userID, entry.Provider, limits.RequestsPerWindow, limits.WindowLength)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to increment usage window")
	}

	if !applied {
		// The call went out but the window was already full: the caller
		// raced past admission. Notify so the user stops retrying.
		s.log.Warnw("Usage recorded over a full window",
			"user_id", entry.UserID,
			"provider", entry.Provider,
			"count", window.Count,
			"limit", limits.RequestsPerWindow)

		s.publisher.PublishQuotaExceeded(ctx, events.QuotaExceededEvent{
			UserID:   userID,
			Provider: entry.Provider,
			ResetAt:  window.WindowEnd,
			At:       time.Now().UTC(),
		})
	}

	if entry.RequestType == ledger.TypeQuestion {
		if _, _, err := s.windowRepo.WeeklyIncrementIfUnder(ctx, userID, limits.WeeklyQuestionLimit, s.weekLength); err != nil {
			return pkgerrors.Wrap(err, "failed to increment weekly counter")
		}
	}

	return nil
}

// GetQuotaUsage returns the current usage picture for a user across all
// tracked providers plus the weekly question counter.
func (s *Service) GetQuotaUsage(ctx context.Context, userID uuid.UUID) (*quota.Summary, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user")
	}

	limits := quota.LimitsFor(s.limits, u.Tier)

	summary := &quota.Summary{
		UserID:  userID,
		Tier:    u.Tier,
		Windows: make(map[string]quota.WindowUsage, len(s.providers)),
	}

	for provider := range s.providers {
		window, err := s.windowRepo.Peek(ctx, userID, provider, limits.WindowLength)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to peek %s window", provider)
		}

		summary.Windows[provider] = quota.WindowUsage{
			Used:    window.Count,
			Limit:   limits.RequestsPerWindow,
			ResetAt: window.WindowEnd,
		}
	}

	weekly, err := s.windowRepo.WeeklyPeek(ctx, userID, s.weekLength)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to peek weekly counter")
	}

	summary.WeeklyQuestions = quota.WeeklyUsage{
		Used:    weekly.Count,
		Limit:   limits.WeeklyQuestionLimit,
		ResetAt: weekly.ResetAt,
	}

	return summary, nil
}
