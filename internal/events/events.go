package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"athena/internal/adapters/kafka"
	"athena/pkg/logger"
)

// QuotaExceededEvent is published when a recorded attempt was denied by
// admission control, so the notification pipeline can tell the user.
type QuotaExceededEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Provider  string    `json:"provider"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	At        time.Time `json:"at"`
}

// ContentPausedEvent is published when content processing is halted
type ContentPausedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	ContentID uuid.UUID `json:"content_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// Publisher publishes platform events to Kafka.
// Publishing is best-effort: failures are logged, never returned to the
// caller, so a broker outage can not fail an admission or a pause.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher. A nil producer disables
// publishing (used when Kafka is not configured).
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishQuotaExceeded publishes a quota exceeded event
func (p *Publisher) PublishQuotaExceeded(ctx context.Context, event QuotaExceededEvent) {
	if p.producer == nil {
		return
	}

	if err := p.producer.Publish(ctx, kafka.TopicQuotaExceeded, event.UserID.String(), event); err != nil {
		p.log.Warnf("Failed to publish quota exceeded event: %v", err)
	}
}

// PublishContentPaused publishes a content paused event
func (p *Publisher) PublishContentPaused(ctx context.Context, event ContentPausedEvent) {
	if p.producer == nil {
		return
	}

	if err := p.producer.Publish(ctx, kafka.TopicContentPaused, event.ContentID.String(), event); err != nil {
		p.log.Warnf("Failed to publish content paused event: %v", err)
	}
}
