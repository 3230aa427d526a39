package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"athena/internal/domain/ledger"
	"athena/pkg/clickhouse"
	"athena/pkg/errors"
	"athena/pkg/logger"
)

// Compile-time check
var _ ledger.Repository = (*RequestLogRepository)(nil)

// RequestLogRepository implements ledger.Repository for ClickHouse.
// Writes go through a batch writer: single row inserts are inefficient and
// the ledger is the hottest append path in the system.
type RequestLogRepository struct {
	conn        driver.Conn
	batchWriter *clickhouse.BatchWriter
}

// NewRequestLogRepository creates a new request log repository with batch writer
func NewRequestLogRepository(conn driver.Conn) *RequestLogRepository {
	repo := &RequestLogRepository{
		conn: conn,
	}

	repo.batchWriter = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig{
		FlushFunc:    repo.flushBatch,
		TableName:    "ai_request_log",
		MaxBatchSize: 500,
		MaxAge:       5 * time.Second,
	})

	return repo
}

// Start begins the background flush loop
func (r *RequestLogRepository) Start(ctx context.Context) {
	r.batchWriter.Start(ctx)
}

// Stop gracefully shuts down the batch writer
func (r *RequestLogRepository) Stop(ctx context.Context) error {
	return r.batchWriter.Stop(ctx)
}

// Store appends a ledger entry (buffered, not immediate)
func (r *RequestLogRepository) Store(ctx context.Context, entry *ledger.Entry) error {
	return r.batchWriter.Add(ctx, entry)
}

// flushBatch performs the actual batch insert to ClickHouse.
// PrepareBatch accumulates rows in memory; Send executes ONE batch INSERT.
func (r *RequestLogRepository) flushBatch(ctx context.Context, batch []interface{}) error {
	if len(batch) == 0 {
		return nil
	}

	log := logger.Get().With("component", "request_log_batch")

	query := `
		INSERT INTO ai_request_log (
			timestamp, event_id, user_id, content_id,
			provider, endpoint, request_type, status,
			tokens_used, cost_usd, duration_ms,
			error_code, error_message, metadata, created_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?
		)
	`

	stmt, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}
	defer stmt.Close()

	validItems := 0
	for _, item := range batch {
		entry, ok := item.(*ledger.Entry)
		if !ok {
			log.Warnf("Skipping invalid item type: %T", item)
			continue
		}

		err := stmt.Append(
			entry.Timestamp, entry.EventID, entry.UserID, entry.ContentID,
			entry.Provider, entry.Endpoint, entry.RequestType, string(entry.Status),
			entry.TokensUsed, entry.CostUSD, entry.DurationMs,
			entry.ErrorCode, entry.ErrorMessage, entry.Metadata, entry.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append to batch")
		}
		validItems++
	}

	if err := stmt.Send(); err != nil {
		return errors.Wrap(err, "failed to send batch")
	}

	log.Debugf("Batch inserted %d request log entries", validItems)
	return nil
}

// CountByUserSince returns the number of entries for a user since a point in time
func (r *RequestLogRepository) CountByUserSince(ctx context.Context, userID string, since time.Time) (uint64, error) {
	query := `
		SELECT count() FROM ai_request_log
		WHERE user_id = ? AND timestamp >= ?
	`

	var count uint64
	if err := r.conn.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count requests by user")
	}

	return count, nil
}

// CountByUserProviderSince narrows the count to one provider
func (r *RequestLogRepository) CountByUserProviderSince(ctx context.Context, userID string, provider string, since time.Time) (uint64, error) {
	query := `
		SELECT count() FROM ai_request_log
		WHERE user_id = ? AND provider = ? AND timestamp >= ?
	`

	var count uint64
	if err := r.conn.QueryRow(ctx, query, userID, provider, since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count requests by user and provider")
	}

	return count, nil
}

// CountByStatusSince returns the number of entries with a given status since a point in time
func (r *RequestLogRepository) CountByStatusSince(ctx context.Context, status ledger.Status, since time.Time) (uint64, error) {
	query := `
		SELECT count() FROM ai_request_log
		WHERE status = ? AND timestamp >= ?
	`

	var count uint64
	if err := r.conn.QueryRow(ctx, query, string(status), since).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count requests by status")
	}

	return count, nil
}

// RecentByUser returns the most recent entries for a user, newest first
func (r *RequestLogRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT timestamp, event_id, user_id, content_id,
		       provider, endpoint, request_type, status,
		       tokens_used, cost_usd, duration_ms,
		       error_code, error_message, metadata, created_at
		FROM ai_request_log
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query recent requests")
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var status string
		if err := rows.Scan(
			&e.Timestamp, &e.EventID, &e.UserID, &e.ContentID,
			&e.Provider, &e.Endpoint, &e.RequestType, &status,
			&e.TokensUsed, &e.CostUSD, &e.DurationMs,
			&e.ErrorCode, &e.ErrorMessage, &e.Metadata, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan request log entry")
		}
		e.Status = ledger.Status(status)
		entries = append(entries, &e)
	}

	return entries, nil
}
