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

const swapRequestColumns = `id, event_id, requester_id, acceptor_id, reason, status, resolution_note, created_at, updated_at, resolved_at`

// CreateSwapRequest inserts one swap request and enqueues its outbox message
// in the same transaction. At most one unresolved request may exist per
// (event, requester) pair; violating writes fail with ErrAlreadyExists.
func (s *Store) CreateSwapRequest(ctx context.Context, record storage.SwapRequestRecord, outbox storage.OutboxMessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.EventID = strings.TrimSpace(record.EventID)
	record.RequesterID = strings.TrimSpace(record.RequesterID)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return fmt.Errorf("swap request id is required")
	}
	if record.EventID == "" {
		return fmt.Errorf("event id is required")
	}
	if record.RequesterID == "" {
		return fmt.Errorf("requester id is required")
	}
	if record.Status == "" {
		return fmt.Errorf("swap request status is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin swap request write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback swap request write: %v", cause, rollbackErr)
		}
		return cause
	}

	var resolvedAt sql.NullInt64
	if record.ResolvedAt != nil {
		resolvedAt = sql.NullInt64{Int64: toMillis(*record.ResolvedAt), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO swap_requests (id, event_id, requester_id, acceptor_id, reason, status, resolution_note, created_at, updated_at, resolved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.EventID,
		record.RequesterID,
		strings.TrimSpace(record.AcceptorID),
		record.Reason,
		record.Status,
		record.ResolutionNote,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
		resolvedAt,
	); err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrAlreadyExists)
		}
		return rollbackWith(fmt.Errorf("create swap request: %w", err))
	}

	if err := putOutboxExec(ctx, tx, outbox); err != nil {
		return rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit swap request write: %w", err)
	}
	return nil
}

// GetSwapRequest loads one swap request by id.
func (s *Store) GetSwapRequest(ctx context.Context, requestID string) (storage.SwapRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("swap request id is required")
	}
	return getSwapRequestRow(ctx, s.sqlDB, requestID)
}

// GetUnresolvedSwapRequestByRequester loads the live request one participant
// holds on one event, if any.
func (s *Store) GetUnresolvedSwapRequestByRequester(ctx context.Context, eventID string, requesterID string) (storage.SwapRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	eventID = strings.TrimSpace(eventID)
	requesterID = strings.TrimSpace(requesterID)
	if eventID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("event id is required")
	}
	if requesterID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("requester id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+swapRequestColumns+`
FROM swap_requests
WHERE event_id = ? AND requester_id = ? AND status IN ('pending', 'accepted')
`, eventID, requesterID)
	record, err := scanSwapRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SwapRequestRecord{}, storage.ErrNotFound
		}
		return storage.SwapRequestRecord{}, fmt.Errorf("get unresolved swap request: %w", err)
	}
	return record, nil
}

// ListUnresolvedSwapRequests lists every pending or accepted request newest first.
func (s *Store) ListUnresolvedSwapRequests(ctx context.Context) ([]storage.SwapRequestDetail, error) {
	return s.listUnresolvedSwapRequestDetails(ctx, "", "")
}

// ListUnresolvedSwapRequestsByEvent lists one event's pending or accepted requests newest first.
func (s *Store) ListUnresolvedSwapRequestsByEvent(ctx context.Context, eventID string) ([]storage.SwapRequestDetail, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	return s.listUnresolvedSwapRequestDetails(ctx, "r.event_id = ?", eventID)
}

// ListUnresolvedSwapRequestsByRequester lists one participant's pending or accepted requests newest first.
func (s *Store) ListUnresolvedSwapRequestsByRequester(ctx context.Context, requesterID string) ([]storage.SwapRequestDetail, error) {
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return nil, fmt.Errorf("requester id is required")
	}
	return s.listUnresolvedSwapRequestDetails(ctx, "r.requester_id = ?", requesterID)
}

// CountUnresolvedSwapRequestsByRequester counts one participant's live requests.
func (s *Store) CountUnresolvedSwapRequestsByRequester(ctx context.Context, requesterID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	requesterID = strings.TrimSpace(requesterID)
	if requesterID == "" {
		return 0, fmt.Errorf("requester id is required")
	}

	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1)
FROM swap_requests
WHERE requester_id = ? AND status IN ('pending', 'accepted')
`, requesterID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unresolved swap requests: %w", err)
	}
	return count, nil
}

// AcceptSwapRequest conditionally moves one pending request to accepted and
// records the acceptor. The write fails with ErrConflict when the request is
// no longer pending, so concurrent acceptances resolve to exactly one winner.
// Requester and acceptor assignment state is re-verified inside the same
// transaction.
func (s *Store) AcceptSwapRequest(ctx context.Context, requestID string, acceptorID string, now time.Time, outbox storage.OutboxMessageRecord) (storage.SwapRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	acceptorID = strings.TrimSpace(acceptorID)
	if requestID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("swap request id is required")
	}
	if acceptorID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("acceptor id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("begin swap accept write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback swap accept write: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
UPDATE swap_requests
SET status = 'accepted', acceptor_id = ?, updated_at = ?
WHERE id = ? AND status = 'pending'
`, acceptorID, toMillis(now), requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("accept swap request: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("accept swap request rows affected: %w", err))
	}
	if affected == 0 {
		missingErr := swapRequestMissingError(ctx, tx, requestID)
		return storage.SwapRequestRecord{}, rollbackWith(missingErr)
	}

	record, err := getSwapRequestRow(ctx, tx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if err := verifyExchangeAssignments(ctx, tx, record.EventID, record.RequesterID, acceptorID); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}

	if err := putOutboxExec(ctx, tx, outbox); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("commit swap accept write: %w", err)
	}
	return record, nil
}

// ApproveSwapExchange executes the physical slot exchange as one transaction:
// the request moves to approved, the requester assignment becomes reserve, the
// acceptor assignment becomes primary inheriting the requester's position, and
// both participants' counters move by one in opposite directions. The request
// write is conditional on expectedStatus; a lost race fails with ErrConflict
// and leaves every row untouched.
func (s *Store) ApproveSwapExchange(ctx context.Context, requestID string, expectedStatus string, acceptorID string, now time.Time, outbox storage.OutboxMessageRecord) (storage.SwapRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	expectedStatus = strings.TrimSpace(expectedStatus)
	acceptorID = strings.TrimSpace(acceptorID)
	if requestID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("swap request id is required")
	}
	if expectedStatus == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("expected status is required")
	}
	if acceptorID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("acceptor id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("begin swap exchange write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback swap exchange write: %v", cause, rollbackErr)
		}
		return cause
	}

	nowMillis := toMillis(now)
	result, err := tx.ExecContext(ctx, `
UPDATE swap_requests
SET status = 'approved', acceptor_id = ?, resolved_at = ?, updated_at = ?
WHERE id = ? AND status = ?
`, acceptorID, nowMillis, nowMillis, requestID, expectedStatus)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("approve swap request: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("approve swap request rows affected: %w", err))
	}
	if affected == 0 {
		missingErr := swapRequestMissingError(ctx, tx, requestID)
		return storage.SwapRequestRecord{}, rollbackWith(missingErr)
	}

	record, err := getSwapRequestRow(ctx, tx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}

	requesterAssignment, err := getAssignmentRow(ctx, tx, record.EventID, record.RequesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, rollbackWith(storage.ErrRequesterNotPrimary)
		}
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if requesterAssignment.Status != "primary" {
		return storage.SwapRequestRecord{}, rollbackWith(storage.ErrRequesterNotPrimary)
	}
	acceptorAssignment, err := getAssignmentRow(ctx, tx, record.EventID, acceptorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, rollbackWith(storage.ErrAcceptorNotReserve)
		}
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if acceptorAssignment.Status != "reserve" {
		return storage.SwapRequestRecord{}, rollbackWith(storage.ErrAcceptorNotReserve)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE assignments
SET status = 'reserve', position = NULL, updated_at = ?
WHERE event_id = ? AND participant_id = ?
`, nowMillis, record.EventID, record.RequesterID); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("move requester to reserve: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE assignments
SET status = 'primary', position = ?, updated_at = ?
WHERE event_id = ? AND participant_id = ?
`, positionArg(requesterAssignment.Position), nowMillis, record.EventID, acceptorID); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("move acceptor to primary: %w", err))
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE participants
SET primary_count = primary_count - 1, reserve_count = reserve_count + 1, updated_at = ?
WHERE id = ?
`, nowMillis, record.RequesterID); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("adjust requester counters: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE participants
SET primary_count = primary_count + 1, reserve_count = reserve_count - 1, updated_at = ?
WHERE id = ?
`, nowMillis, acceptorID); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("adjust acceptor counters: %w", err))
	}

	if err := putOutboxExec(ctx, tx, outbox); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("commit swap exchange write: %w", err)
	}
	return record, nil
}

// ResolveSwapRequest conditionally moves one unresolved request to a terminal
// status with a resolution note. Requests already resolved fail with
// ErrConflict.
func (s *Store) ResolveSwapRequest(ctx context.Context, requestID string, toStatus string, note string, now time.Time, outbox storage.OutboxMessageRecord) (storage.SwapRequestRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("storage is not configured")
	}
	requestID = strings.TrimSpace(requestID)
	toStatus = strings.TrimSpace(toStatus)
	if requestID == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("swap request id is required")
	}
	if toStatus == "" {
		return storage.SwapRequestRecord{}, fmt.Errorf("target status is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("begin swap resolve write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback swap resolve write: %v", cause, rollbackErr)
		}
		return cause
	}

	nowMillis := toMillis(now)
	result, err := tx.ExecContext(ctx, `
UPDATE swap_requests
SET status = ?, resolution_note = ?, resolved_at = ?, updated_at = ?
WHERE id = ? AND status IN ('pending', 'accepted')
`, toStatus, strings.TrimSpace(note), nowMillis, nowMillis, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("resolve swap request: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(fmt.Errorf("resolve swap request rows affected: %w", err))
	}
	if affected == 0 {
		missingErr := swapRequestMissingError(ctx, tx, requestID)
		return storage.SwapRequestRecord{}, rollbackWith(missingErr)
	}

	record, err := getSwapRequestRow(ctx, tx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if err := putOutboxExec(ctx, tx, outbox); err != nil {
		return storage.SwapRequestRecord{}, rollbackWith(err)
	}
	if err := tx.Commit(); err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("commit swap resolve write: %w", err)
	}
	return record, nil
}

func (s *Store) listUnresolvedSwapRequestDetails(ctx context.Context, filter string, arg string) ([]storage.SwapRequestDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT r.id, r.event_id, r.requester_id, r.acceptor_id, r.reason, r.status, r.resolution_note, r.created_at, r.updated_at, r.resolved_at,
       e.date, req.name, COALESCE(acc.name, '')
FROM swap_requests r
JOIN events e ON e.id = r.event_id
JOIN participants req ON req.id = r.requester_id
LEFT JOIN participants acc ON acc.id = r.acceptor_id
WHERE r.status IN ('pending', 'accepted')
`
	args := make([]any, 0, 1)
	if filter != "" {
		query += "  AND " + filter + "\n"
		args = append(args, arg)
	}
	query += "ORDER BY r.created_at DESC, r.id DESC"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unresolved swap requests: %w", err)
	}
	defer rows.Close()

	results := make([]storage.SwapRequestDetail, 0, 8)
	for rows.Next() {
		var detail storage.SwapRequestDetail
		var createdAt int64
		var updatedAt int64
		var resolvedAt sql.NullInt64
		if err := rows.Scan(
			&detail.ID,
			&detail.EventID,
			&detail.RequesterID,
			&detail.AcceptorID,
			&detail.Reason,
			&detail.Status,
			&detail.ResolutionNote,
			&createdAt,
			&updatedAt,
			&resolvedAt,
			&detail.EventDate,
			&detail.RequesterName,
			&detail.AcceptorName,
		); err != nil {
			return nil, fmt.Errorf("scan swap request detail row: %w", err)
		}
		detail.CreatedAt = fromMillis(createdAt)
		detail.UpdatedAt = fromMillis(updatedAt)
		if resolvedAt.Valid {
			value := fromMillis(resolvedAt.Int64)
			detail.ResolvedAt = &value
		}
		results = append(results, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap request detail rows: %w", err)
	}
	return results, nil
}

// verifyExchangeAssignments re-checks both sides of a swap inside the calling
// transaction: the requester must still be primary and the acceptor reserve.
func verifyExchangeAssignments(ctx context.Context, querier sqlQuerier, eventID string, requesterID string, acceptorID string) error {
	requesterAssignment, err := getAssignmentRow(ctx, querier, eventID, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrRequesterNotPrimary
		}
		return err
	}
	if requesterAssignment.Status != "primary" {
		return storage.ErrRequesterNotPrimary
	}
	acceptorAssignment, err := getAssignmentRow(ctx, querier, eventID, acceptorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrAcceptorNotReserve
		}
		return err
	}
	if acceptorAssignment.Status != "reserve" {
		return storage.ErrAcceptorNotReserve
	}
	return nil
}

func swapRequestMissingError(ctx context.Context, querier sqlQuerier, requestID string) error {
	var found int
	err := querier.QueryRowContext(ctx, `SELECT 1 FROM swap_requests WHERE id = ?`, requestID).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check swap request existence: %w", err)
	}
	return storage.ErrConflict
}

func getSwapRequestRow(ctx context.Context, querier sqlQuerier, requestID string) (storage.SwapRequestRecord, error) {
	row := querier.QueryRowContext(ctx, `
SELECT `+swapRequestColumns+`
FROM swap_requests
WHERE id = ?
`, requestID)
	record, err := scanSwapRequest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SwapRequestRecord{}, storage.ErrNotFound
		}
		return storage.SwapRequestRecord{}, fmt.Errorf("get swap request: %w", err)
	}
	return record, nil
}

func scanSwapRequest(scan scanner) (storage.SwapRequestRecord, error) {
	var record storage.SwapRequestRecord
	var createdAt int64
	var updatedAt int64
	var resolvedAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.EventID,
		&record.RequesterID,
		&record.AcceptorID,
		&record.Reason,
		&record.Status,
		&record.ResolutionNote,
		&createdAt,
		&updatedAt,
		&resolvedAt,
	); err != nil {
		return storage.SwapRequestRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if resolvedAt.Valid {
		value := fromMillis(resolvedAt.Int64)
		record.ResolvedAt = &value
	}
	return record, nil
}
