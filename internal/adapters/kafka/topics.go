package kafka

// Topic names for platform events
const (
	// TopicQuotaExceeded carries admission denials for the notification pipeline
	TopicQuotaExceeded = "athena.quota.exceeded"

	// TopicContentPaused carries content-processing pause events
	TopicContentPaused = "athena.content.paused"
)
