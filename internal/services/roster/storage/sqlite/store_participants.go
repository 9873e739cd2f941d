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

// PutParticipant inserts one participant row.
func (s *Store) PutParticipant(ctx context.Context, record storage.ParticipantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.Name = strings.TrimSpace(record.Name)
	if record.ID == "" {
		return fmt.Errorf("participant id is required")
	}
	if record.Name == "" {
		return fmt.Errorf("participant name is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO participants (id, name, primary_count, reserve_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.Name,
		record.PrimaryCount,
		record.ReserveCount,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put participant: %w", err)
	}
	return nil
}

// GetParticipant loads one participant by id.
func (s *Store) GetParticipant(ctx context.Context, participantID string) (storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ParticipantRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ParticipantRecord{}, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return storage.ParticipantRecord{}, fmt.Errorf("participant id is required")
	}
	return getParticipantRow(ctx, s.sqlDB, participantID)
}

// GetParticipantByName loads one participant by display name.
func (s *Store) GetParticipantByName(ctx context.Context, name string) (storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ParticipantRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ParticipantRecord{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.ParticipantRecord{}, fmt.Errorf("participant name is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, primary_count, reserve_count, created_at, updated_at
FROM participants
WHERE name = ?
`, name)
	record, err := scanParticipant(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ParticipantRecord{}, storage.ErrNotFound
		}
		return storage.ParticipantRecord{}, fmt.Errorf("get participant by name: %w", err)
	}
	return record, nil
}

// ListParticipants lists every participant ordered by display name.
func (s *Store) ListParticipants(ctx context.Context) ([]storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, primary_count, reserve_count, created_at, updated_at
FROM participants
ORDER BY name ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// ListParticipantsByPrimaryCount lists participants ordered by primary count
// descending, ties broken by name.
func (s *Store) ListParticipantsByPrimaryCount(ctx context.Context, limit int) ([]storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, primary_count, reserve_count, created_at, updated_at
FROM participants
ORDER BY primary_count DESC, name ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list participants by primary count: %w", err)
	}
	defer rows.Close()
	return collectParticipants(rows)
}

// AdjustParticipantCounters atomically applies both counter deltas.
func (s *Store) AdjustParticipantCounters(ctx context.Context, participantID string, primaryDelta int, reserveDelta int, now time.Time) (storage.ParticipantRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ParticipantRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ParticipantRecord{}, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return storage.ParticipantRecord{}, fmt.Errorf("participant id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE participants
SET primary_count = primary_count + ?, reserve_count = reserve_count + ?, updated_at = ?
WHERE id = ?
`, primaryDelta, reserveDelta, toMillis(now), participantID)
	if err != nil {
		return storage.ParticipantRecord{}, fmt.Errorf("adjust participant counters: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.ParticipantRecord{}, fmt.Errorf("adjust participant counters rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ParticipantRecord{}, storage.ErrNotFound
	}
	return getParticipantRow(ctx, s.sqlDB, participantID)
}

// PutCharacter inserts one character row; setting a new main demotes the
// previous main in the same transaction.
func (s *Store) PutCharacter(ctx context.Context, record storage.CharacterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ParticipantID = strings.TrimSpace(record.ParticipantID)
	record.Name = strings.TrimSpace(record.Name)
	record.Class = strings.TrimSpace(record.Class)
	if record.ParticipantID == "" {
		return fmt.Errorf("participant id is required")
	}
	if record.Name == "" {
		return fmt.Errorf("character name is required")
	}
	if record.Class == "" {
		return fmt.Errorf("character class is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin character write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback character write: %v", cause, rollbackErr)
		}
		return cause
	}

	if record.Main {
		if _, err := tx.ExecContext(ctx, `
UPDATE characters
SET main = 0, updated_at = ?
WHERE participant_id = ? AND main = 1
`, toMillis(record.UpdatedAt), record.ParticipantID); err != nil {
			return rollbackWith(fmt.Errorf("demote previous main character: %w", err))
		}
	}

	mainFlag := 0
	if record.Main {
		mainFlag = 1
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO characters (participant_id, name, class, main, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		record.ParticipantID,
		record.Name,
		record.Class,
		mainFlag,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	); err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrAlreadyExists)
		}
		return rollbackWith(fmt.Errorf("put character: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit character write: %w", err)
	}
	return nil
}

// ListCharactersByParticipant lists one participant's characters, main first.
func (s *Store) ListCharactersByParticipant(ctx context.Context, participantID string) ([]storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("participant id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT participant_id, name, class, main, created_at, updated_at
FROM characters
WHERE participant_id = ?
ORDER BY main DESC, name ASC
`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	results := make([]storage.CharacterRecord, 0, 4)
	for rows.Next() {
		record, scanErr := scanCharacter(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan character row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character rows: %w", err)
	}
	return results, nil
}

// GetMainCharacter loads one participant's main character.
func (s *Store) GetMainCharacter(ctx context.Context, participantID string) (storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CharacterRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CharacterRecord{}, fmt.Errorf("storage is not configured")
	}
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return storage.CharacterRecord{}, fmt.Errorf("participant id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT participant_id, name, class, main, created_at, updated_at
FROM characters
WHERE participant_id = ? AND main = 1
`, participantID)
	record, err := scanCharacter(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CharacterRecord{}, storage.ErrNotFound
		}
		return storage.CharacterRecord{}, fmt.Errorf("get main character: %w", err)
	}
	return record, nil
}

func getParticipantRow(ctx context.Context, querier sqlQuerier, participantID string) (storage.ParticipantRecord, error) {
	row := querier.QueryRowContext(ctx, `
SELECT id, name, primary_count, reserve_count, created_at, updated_at
FROM participants
WHERE id = ?
`, participantID)
	record, err := scanParticipant(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ParticipantRecord{}, storage.ErrNotFound
		}
		return storage.ParticipantRecord{}, fmt.Errorf("get participant: %w", err)
	}
	return record, nil
}

func scanParticipant(scan scanner) (storage.ParticipantRecord, error) {
	var record storage.ParticipantRecord
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.Name,
		&record.PrimaryCount,
		&record.ReserveCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ParticipantRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanCharacter(scan scanner) (storage.CharacterRecord, error) {
	var record storage.CharacterRecord
	var mainFlag int
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ParticipantID,
		&record.Name,
		&record.Class,
		&mainFlag,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.CharacterRecord{}, err
	}
	record.Main = mainFlag == 1
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectParticipants(rows *sql.Rows) ([]storage.ParticipantRecord, error) {
	results := make([]storage.ParticipantRecord, 0, 16)
	for rows.Next() {
		record, err := scanParticipant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan participant row: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participant rows: %w", err)
	}
	return results, nil
}
