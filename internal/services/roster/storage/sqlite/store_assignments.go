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

// PutAssignment inserts one assignment row for an (event, participant) pair.
func (s *Store) PutAssignment(ctx context.Context, record storage.AssignmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.EventID = strings.TrimSpace(record.EventID)
	record.ParticipantID = strings.TrimSpace(record.ParticipantID)
	record.SlotLabel = strings.TrimSpace(record.SlotLabel)
	record.Status = strings.TrimSpace(record.Status)
	if record.EventID == "" {
		return fmt.Errorf("event id is required")
	}
	if record.ParticipantID == "" {
		return fmt.Errorf("participant id is required")
	}
	if record.Status == "" {
		return fmt.Errorf("assignment status is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO assignments (event_id, participant_id, slot_label, status, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		record.EventID,
		record.ParticipantID,
		record.SlotLabel,
		record.Status,
		positionArg(record.Position),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put assignment: %w", err)
	}
	return nil
}

// GetAssignment loads one assignment for an (event, participant) pair.
func (s *Store) GetAssignment(ctx context.Context, eventID string, participantID string) (storage.AssignmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AssignmentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AssignmentRecord{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	participantID = strings.TrimSpace(participantID)
	if eventID == "" {
		return storage.AssignmentRecord{}, fmt.Errorf("event id is required")
	}
	if participantID == "" {
		return storage.AssignmentRecord{}, fmt.Errorf("participant id is required")
	}
	return getAssignmentRow(ctx, s.sqlDB, eventID, participantID)
}

// UpdateAssignmentStatus updates one assignment's status in place.
func (s *Store) UpdateAssignmentStatus(ctx context.Context, eventID string, participantID string, status string, now time.Time) (storage.AssignmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AssignmentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AssignmentRecord{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	participantID = strings.TrimSpace(participantID)
	status = strings.TrimSpace(status)
	if eventID == "" {
		return storage.AssignmentRecord{}, fmt.Errorf("event id is required")
	}
	if participantID == "" {
		return storage.AssignmentRecord{}, fmt.Errorf("participant id is required")
	}
	if status == "" {
		return storage.AssignmentRecord{}, fmt.Errorf("assignment status is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE assignments
SET status = ?, updated_at = ?
WHERE event_id = ? AND participant_id = ?
`, status, toMillis(now), eventID, participantID)
	if err != nil {
		return storage.AssignmentRecord{}, fmt.Errorf("update assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.AssignmentRecord{}, fmt.Errorf("update assignment status rows affected: %w", err)
	}
	if affected == 0 {
		return storage.AssignmentRecord{}, storage.ErrNotFound
	}
	return getAssignmentRow(ctx, s.sqlDB, eventID, participantID)
}

// DeleteAssignment removes one assignment; deleting a missing row is a no-op.
func (s *Store) DeleteAssignment(ctx context.Context, eventID string, participantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	participantID = strings.TrimSpace(participantID)
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}
	if participantID == "" {
		return fmt.Errorf("participant id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM assignments
WHERE event_id = ? AND participant_id = ?
`, eventID, participantID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// ListRoster lists one event's assignments joined with participant display
// data, ordered by position ascending with unpositioned rows last, then name.
func (s *Store) ListRoster(ctx context.Context, eventID string) ([]storage.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT a.event_id, a.participant_id, p.name, a.slot_label, COALESCE(c.class, ''), a.status, a.position
FROM assignments a
JOIN participants p ON p.id = a.participant_id
LEFT JOIN characters c ON c.participant_id = a.participant_id AND c.name = a.slot_label
WHERE a.event_id = ?
ORDER BY a.position IS NULL ASC, a.position ASC, p.name ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	results := make([]storage.RosterEntry, 0, 32)
	for rows.Next() {
		var entry storage.RosterEntry
		var position sql.NullInt64
		if err := rows.Scan(
			&entry.EventID,
			&entry.ParticipantID,
			&entry.ParticipantName,
			&entry.SlotLabel,
			&entry.Class,
			&entry.Status,
			&position,
		); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		entry.Position = positionValue(position)
		if entry.Class == "" {
			entry.Class = "Unknown"
		}
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}
	return results, nil
}

func getAssignmentRow(ctx context.Context, querier sqlQuerier, eventID string, participantID string) (storage.AssignmentRecord, error) {
	row := querier.QueryRowContext(ctx, `
SELECT event_id, participant_id, slot_label, status, position, created_at, updated_at
FROM assignments
WHERE event_id = ? AND participant_id = ?
`, eventID, participantID)
	record, err := scanAssignment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AssignmentRecord{}, storage.ErrNotFound
		}
		return storage.AssignmentRecord{}, fmt.Errorf("get assignment: %w", err)
	}
	return record, nil
}

func scanAssignment(scan scanner) (storage.AssignmentRecord, error) {
	var record storage.AssignmentRecord
	var position sql.NullInt64
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.EventID,
		&record.ParticipantID,
		&record.SlotLabel,
		&record.Status,
		&position,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.AssignmentRecord{}, err
	}
	record.Position = positionValue(position)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
