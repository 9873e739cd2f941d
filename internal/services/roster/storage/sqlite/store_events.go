package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

// PutEvent inserts one event row keyed by its unique date.
func (s *Store) PutEvent(ctx context.Context, record storage.EventRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.Date = strings.TrimSpace(record.Date)
	record.StartTime = strings.TrimSpace(record.StartTime)
	record.Timezone = strings.TrimSpace(record.Timezone)
	if record.ID == "" {
		return fmt.Errorf("event id is required")
	}
	if record.Date == "" {
		return fmt.Errorf("event date is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO events (id, date, start_time, timezone, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.Date,
		record.StartTime,
		record.Timezone,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// GetEvent loads one event by id.
func (s *Store) GetEvent(ctx context.Context, eventID string) (storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EventRecord{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return storage.EventRecord{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, date, start_time, timezone, created_at, updated_at
FROM events
WHERE id = ?
`, eventID)
	return scanEventRow(row, "get event")
}

// GetEventByDate loads one event by its normalized date.
func (s *Store) GetEventByDate(ctx context.Context, date string) (storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EventRecord{}, fmt.Errorf("storage is not configured")
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return storage.EventRecord{}, fmt.Errorf("event date is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, date, start_time, timezone, created_at, updated_at
FROM events
WHERE date = ?
`, date)
	return scanEventRow(row, "get event by date")
}

// ListEventsFrom lists events with date at or after fromDate, ascending.
func (s *Store) ListEventsFrom(ctx context.Context, fromDate string, limit int) ([]storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	fromDate = strings.TrimSpace(fromDate)
	if fromDate == "" {
		return nil, fmt.Errorf("from date is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, date, start_time, timezone, created_at, updated_at
FROM events
WHERE date >= ?
ORDER BY date ASC
LIMIT ?
`, fromDate, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	results := make([]storage.EventRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanEvent(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan event row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return results, nil
}

// UpdateEventSchedule updates the time/timezone annotation of one event.
func (s *Store) UpdateEventSchedule(ctx context.Context, eventID string, startTime string, timezone string, now time.Time) (storage.EventRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EventRecord{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return storage.EventRecord{}, fmt.Errorf("event id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE events
SET start_time = ?, timezone = ?, updated_at = ?
WHERE id = ?
`, strings.TrimSpace(startTime), strings.TrimSpace(timezone), toMillis(now), eventID)
	if err != nil {
		return storage.EventRecord{}, fmt.Errorf("update event schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.EventRecord{}, fmt.Errorf("update event schedule rows affected: %w", err)
	}
	if affected == 0 {
		return storage.EventRecord{}, storage.ErrNotFound
	}
	return s.GetEvent(ctx, eventID)
}

func scanEventRow(row *sql.Row, operation string) (storage.EventRecord, error) {
	record, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EventRecord{}, storage.ErrNotFound
		}
		return storage.EventRecord{}, fmt.Errorf("%s: %w", operation, err)
	}
	return record, nil
}

func scanEvent(scan scanner) (storage.EventRecord, error) {
	var record storage.EventRecord
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.Date,
		&record.StartTime,
		&record.Timezone,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.EventRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
