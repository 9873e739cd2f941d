package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

// PutOutboxMessage enqueues one notification message for delivery.
func (s *Store) PutOutboxMessage(ctx context.Context, record storage.OutboxMessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return putOutboxExec(ctx, s.sqlDB, record)
}

// ListDueOutboxMessages returns pending messages whose next attempt time has
// passed, oldest due first.
func (s *Store) ListDueOutboxMessages(ctx context.Context, limit int, now time.Time) ([]storage.OutboxMessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, payload, status, attempt_count, next_attempt_at, last_error, created_at, updated_at, delivered_at
FROM outbox_messages
WHERE status = 'pending' AND next_attempt_at <= ?
ORDER BY next_attempt_at ASC, id ASC
LIMIT ?
`, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list due outbox messages: %w", err)
	}
	defer rows.Close()

	results := make([]storage.OutboxMessageRecord, 0, limit)
	for rows.Next() {
		record, err := scanOutboxMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan outbox message row: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox message rows: %w", err)
	}
	return results, nil
}

// MarkOutboxDelivered finalizes one message after a successful delivery.
func (s *Store) MarkOutboxDelivered(ctx context.Context, messageID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return fmt.Errorf("outbox message id is required")
	}

	nowMillis := toMillis(now)
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbox_messages
SET status = 'delivered', last_error = '', delivered_at = ?, updated_at = ?
WHERE id = ? AND status = 'pending'
`, nowMillis, nowMillis, messageID)
	if err != nil {
		return fmt.Errorf("mark outbox message delivered: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox message delivered rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkOutboxRetry reschedules one failed message for a later attempt.
func (s *Store) MarkOutboxRetry(ctx context.Context, messageID string, attemptCount int, nextAttemptAt time.Time, lastError string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return fmt.Errorf("outbox message id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbox_messages
SET attempt_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
WHERE id = ? AND status = 'pending'
`, attemptCount, toMillis(nextAttemptAt), truncateError(lastError), toMillis(now), messageID)
	if err != nil {
		return fmt.Errorf("mark outbox message for retry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox message for retry rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkOutboxDead parks one message after its delivery attempts are exhausted.
func (s *Store) MarkOutboxDead(ctx context.Context, messageID string, attemptCount int, lastError string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return fmt.Errorf("outbox message id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE outbox_messages
SET status = 'dead', attempt_count = ?, last_error = ?, updated_at = ?
WHERE id = ? AND status = 'pending'
`, attemptCount, truncateError(lastError), toMillis(now), messageID)
	if err != nil {
		return fmt.Errorf("mark outbox message dead: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark outbox message dead rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// putOutboxExec inserts one outbox row through the supplied execer so writes
// can join a surrounding transaction.
func putOutboxExec(ctx context.Context, execer sqlExecer, record storage.OutboxMessageRecord) error {
	record.ID = strings.TrimSpace(record.ID)
	record.Kind = strings.TrimSpace(record.Kind)
	if record.ID == "" {
		return fmt.Errorf("outbox message id is required")
	}
	if record.Kind == "" {
		return fmt.Errorf("outbox message kind is required")
	}
	if record.PayloadJSON == "" {
		record.PayloadJSON = "{}"
	}
	if record.Status == "" {
		record.Status = storage.OutboxStatusPending
	}
	if record.NextAttemptAt.IsZero() {
		record.NextAttemptAt = record.CreatedAt
	}

	var deliveredAt any
	if record.DeliveredAt != nil {
		deliveredAt = toMillis(*record.DeliveredAt)
	}
	if _, err := execer.ExecContext(ctx, `
INSERT INTO outbox_messages (id, kind, payload, status, attempt_count, next_attempt_at, last_error, created_at, updated_at, delivered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.Kind,
		record.PayloadJSON,
		record.Status,
		record.AttemptCount,
		toMillis(record.NextAttemptAt),
		record.LastError,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
		deliveredAt,
	); err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put outbox message: %w", err)
	}
	return nil
}

func scanOutboxMessage(scan scanner) (storage.OutboxMessageRecord, error) {
	var record storage.OutboxMessageRecord
	var nextAttemptAt int64
	var createdAt int64
	var updatedAt int64
	var deliveredAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.Kind,
		&record.PayloadJSON,
		&record.Status,
		&record.AttemptCount,
		&nextAttemptAt,
		&record.LastError,
		&createdAt,
		&updatedAt,
		&deliveredAt,
	); err != nil {
		return storage.OutboxMessageRecord{}, err
	}
	record.NextAttemptAt = fromMillis(nextAttemptAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if deliveredAt.Valid {
		value := fromMillis(deliveredAt.Int64)
		record.DeliveredAt = &value
	}
	return record, nil
}

// truncateError keeps stored delivery errors bounded.
func truncateError(message string) string {
	const maxLen = 512
	if len(message) <= maxLen {
		return message
	}
	return message[:maxLen]
}
