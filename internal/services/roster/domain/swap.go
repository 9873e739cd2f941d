package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

// SwapStatus describes the lifecycle of a swap request.
type SwapStatus int

const (
	// SwapStatusUnspecified represents an invalid swap status value.
	SwapStatusUnspecified SwapStatus = iota
	// SwapStatusPending indicates the request awaits an accepting participant.
	SwapStatusPending
	// SwapStatusAccepted indicates a reserve participant volunteered.
	SwapStatusAccepted
	// SwapStatusApproved indicates the slot exchange was executed.
	SwapStatusApproved
	// SwapStatusDenied indicates the request was rejected.
	SwapStatusDenied
	// SwapStatusCancelled indicates the request was withdrawn.
	SwapStatusCancelled
)

// Label returns the stored form of a swap status.
func (s SwapStatus) Label() string {
	switch s {
	case SwapStatusPending:
		return "pending"
	case SwapStatusAccepted:
		return "accepted"
	case SwapStatusApproved:
		return "approved"
	case SwapStatusDenied:
		return "denied"
	case SwapStatusCancelled:
		return "cancelled"
	default:
		return "unspecified"
	}
}

// SwapStatusFromLabel parses a stored swap status label.
func SwapStatusFromLabel(label string) SwapStatus {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "pending":
		return SwapStatusPending
	case "accepted":
		return SwapStatusAccepted
	case "approved":
		return SwapStatusApproved
	case "denied":
		return SwapStatusDenied
	case "cancelled":
		return SwapStatusCancelled
	default:
		return SwapStatusUnspecified
	}
}

// IsTerminal reports whether no further transition may leave the status.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusApproved || s == SwapStatusDenied || s == SwapStatusCancelled
}

// swapTransitionError builds the coded error for a disallowed status change.
func swapTransitionError(from, to SwapStatus) error {
	fromLabel := from.Label()
	toLabel := to.Label()
	return apperrors.WithMetadata(
		apperrors.CodeInvalidTransition,
		fmt.Sprintf("swap request transition not allowed: %s -> %s", fromLabel, toLabel),
		map[string]string{"FromStatus": fromLabel, "ToStatus": toLabel},
	)
}

// CreateSwapRequestInput describes one slot-exchange proposal.
type CreateSwapRequestInput struct {
	EventDate string
	Reason    string
}

// CreateSwapRequest opens a pending swap request for the caller's primary
// slot on one event.
func (s *Service) CreateSwapRequest(ctx context.Context, actor Actor, input CreateSwapRequestInput) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	requesterID := strings.TrimSpace(actor.ParticipantID)
	if requesterID == "" {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeInvalidArgument, "caller participant id is required")
	}
	event, err := s.GetEvent(ctx, input.EventDate)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	requester, err := s.GetParticipant(ctx, requesterID)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}

	assignment, err := s.store.GetAssignment(ctx, event.ID, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotEligible, "only a primary assignment holder may request a swap")
		}
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load requester assignment", err)
	}
	if AssignmentStatusFromLabel(assignment.Status) != AssignmentStatusPrimary {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotEligible, "only a primary assignment holder may request a swap")
	}

	if _, err := s.store.GetUnresolvedSwapRequestByRequester(ctx, event.ID, requesterID); err == nil {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeDuplicatePending, "an unresolved swap request already exists for this event")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "check unresolved swap requests", err)
	}

	requestID, err := s.newID()
	if err != nil {
		return storage.SwapRequestRecord{}, fmt.Errorf("generate swap request id: %w", err)
	}
	now := s.nowUTC()
	record := storage.SwapRequestRecord{
		ID:          requestID,
		EventID:     event.ID,
		RequesterID: requesterID,
		Reason:      strings.TrimSpace(input.Reason),
		Status:      SwapStatusPending.Label(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	outbox, err := s.newSwapOutboxMessage(MessageKindSwapRequested, SwapEventPayload{
		RequestID: requestID,
		EventDate: event.Date,
		Requester: requester.Name,
		Reason:    record.Reason,
	}, now)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if err := s.store.CreateSwapRequest(ctx, record, outbox); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeDuplicatePending, "an unresolved swap request already exists for this event")
		}
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "create swap request", err)
	}
	return record, nil
}

// AcceptSwapRequest records the caller as the accepting participant of one
// pending request. Under auto-approve the acceptance executes the full slot
// exchange atomically; eligibility checks still apply.
func (s *Service) AcceptSwapRequest(ctx context.Context, actor Actor, requestID string) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	acceptorID := strings.TrimSpace(actor.ParticipantID)
	if acceptorID == "" {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeInvalidArgument, "caller participant id is required")
	}
	request, err := s.getSwapRequestRecord(ctx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	current := SwapStatusFromLabel(request.Status)
	if current.IsTerminal() {
		return storage.SwapRequestRecord{}, swapTransitionError(current, SwapStatusAccepted)
	}
	if current == SwapStatusAccepted {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeAlreadyAccepted, "swap request is already accepted")
	}
	if request.RequesterID == acceptorID {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeSelfSwap, "a swap request cannot be accepted by its requester")
	}

	acceptorAssignment, err := s.store.GetAssignment(ctx, request.EventID, acceptorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotEligible, "only a reserve assignment holder may accept a swap")
		}
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load acceptor assignment", err)
	}
	if AssignmentStatusFromLabel(acceptorAssignment.Status) != AssignmentStatusReserve {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotEligible, "only a reserve assignment holder may accept a swap")
	}
	requesterAssignment, err := s.store.GetAssignment(ctx, request.EventID, request.RequesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeStaleRequest, "requester no longer holds a primary assignment")
		}
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load requester assignment", err)
	}
	if AssignmentStatusFromLabel(requesterAssignment.Status) != AssignmentStatusPrimary {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeStaleRequest, "requester no longer holds a primary assignment")
	}

	payload, err := s.swapPayload(ctx, request, acceptorID, "")
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	now := s.nowUTC()

	var updated storage.SwapRequestRecord
	if s.autoApprove {
		outbox, buildErr := s.newSwapOutboxMessage(MessageKindSwapApproved, payload, now)
		if buildErr != nil {
			return storage.SwapRequestRecord{}, buildErr
		}
		updated, err = s.store.ApproveSwapExchange(ctx, request.ID, request.Status, acceptorID, now, outbox)
	} else {
		outbox, buildErr := s.newSwapOutboxMessage(MessageKindSwapAccepted, payload, now)
		if buildErr != nil {
			return storage.SwapRequestRecord{}, buildErr
		}
		updated, err = s.store.AcceptSwapRequest(ctx, request.ID, acceptorID, now, outbox)
	}
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.SwapRequestRecord{}, s.acceptRaceError(ctx, request.ID)
		case errors.Is(err, storage.ErrRequesterNotPrimary):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeStaleRequest, "requester no longer holds a primary assignment")
		case errors.Is(err, storage.ErrAcceptorNotReserve):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotEligible, "only a reserve assignment holder may accept a swap")
		case errors.Is(err, storage.ErrNotFound):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotFound, "swap request not found")
		default:
			return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "accept swap request", err)
		}
	}
	return updated, nil
}

// ApproveSwapRequest executes the slot exchange for one accepted request.
// Privileged.
func (s *Service) ApproveSwapRequest(ctx context.Context, actor Actor, requestID string) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	if !s.gate.Authorized(actor.Roles) {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeUnauthorized, "caller is not authorized to resolve swap requests")
	}
	request, err := s.getSwapRequestRecord(ctx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	current := SwapStatusFromLabel(request.Status)
	if current.IsTerminal() {
		return storage.SwapRequestRecord{}, swapTransitionError(current, SwapStatusApproved)
	}
	if strings.TrimSpace(request.AcceptorID) == "" {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNoAcceptor, "swap request has no accepting participant")
	}

	payload, err := s.swapPayload(ctx, request, request.AcceptorID, "")
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	now := s.nowUTC()
	outbox, err := s.newSwapOutboxMessage(MessageKindSwapApproved, payload, now)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	updated, err := s.store.ApproveSwapExchange(ctx, request.ID, request.Status, request.AcceptorID, now, outbox)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.SwapRequestRecord{}, s.resolutionRaceError(ctx, request.ID, SwapStatusApproved)
		case errors.Is(err, storage.ErrRequesterNotPrimary), errors.Is(err, storage.ErrAcceptorNotReserve):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeStaleRequest, "assignment state changed since the request was accepted")
		case errors.Is(err, storage.ErrNotFound):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotFound, "swap request not found")
		default:
			return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "approve swap request", err)
		}
	}
	return updated, nil
}

// DenySwapRequest rejects one unresolved request with an optional note.
// Privileged.
func (s *Service) DenySwapRequest(ctx context.Context, actor Actor, requestID string, note string) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	if !s.gate.Authorized(actor.Roles) {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeUnauthorized, "caller is not authorized to resolve swap requests")
	}
	request, err := s.getSwapRequestRecord(ctx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	current := SwapStatusFromLabel(request.Status)
	if current.IsTerminal() {
		return storage.SwapRequestRecord{}, swapTransitionError(current, SwapStatusDenied)
	}
	return s.resolveSwapRequest(ctx, request, SwapStatusDenied, strings.TrimSpace(note), MessageKindSwapDenied)
}

// CancelSwapRequest withdraws one unresolved request. Permitted for the
// requester or an authorized caller.
func (s *Service) CancelSwapRequest(ctx context.Context, actor Actor, requestID string) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	request, err := s.getSwapRequestRecord(ctx, requestID)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	if strings.TrimSpace(actor.ParticipantID) != request.RequesterID && !s.gate.Authorized(actor.Roles) {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeUnauthorized, "only the requester or an authorized caller may cancel a swap request")
	}
	current := SwapStatusFromLabel(request.Status)
	if current.IsTerminal() {
		return storage.SwapRequestRecord{}, swapTransitionError(current, SwapStatusCancelled)
	}
	return s.resolveSwapRequest(ctx, request, SwapStatusCancelled, "", MessageKindSwapCancelled)
}

// GetSwapRequest loads one swap request by id.
func (s *Service) GetSwapRequest(ctx context.Context, requestID string) (storage.SwapRequestRecord, error) {
	if s == nil || s.store == nil {
		return storage.SwapRequestRecord{}, ErrStoreNotConfigured
	}
	return s.getSwapRequestRecord(ctx, requestID)
}

// ListUnresolvedSwapRequests lists every pending or accepted request newest
// first.
func (s *Service) ListUnresolvedSwapRequests(ctx context.Context) ([]storage.SwapRequestDetail, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	details, err := s.store.ListUnresolvedSwapRequests(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list unresolved swap requests", err)
	}
	return details, nil
}

// ListUnresolvedSwapRequestsByEvent lists one event's unresolved requests
// newest first.
func (s *Service) ListUnresolvedSwapRequestsByEvent(ctx context.Context, eventDate string) ([]storage.SwapRequestDetail, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, eventDate)
	if err != nil {
		return nil, err
	}
	details, err := s.store.ListUnresolvedSwapRequestsByEvent(ctx, event.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list unresolved swap requests", err)
	}
	return details, nil
}

// ListUnresolvedSwapRequestsByRequester lists one participant's unresolved
// requests newest first.
func (s *Service) ListUnresolvedSwapRequestsByRequester(ctx context.Context, participantID string) ([]storage.SwapRequestDetail, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	participant, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	details, err := s.store.ListUnresolvedSwapRequestsByRequester(ctx, participant.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list unresolved swap requests", err)
	}
	return details, nil
}

func (s *Service) resolveSwapRequest(ctx context.Context, request storage.SwapRequestRecord, target SwapStatus, note string, messageKind string) (storage.SwapRequestRecord, error) {
	payload, err := s.swapPayload(ctx, request, request.AcceptorID, note)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	now := s.nowUTC()
	outbox, err := s.newSwapOutboxMessage(messageKind, payload, now)
	if err != nil {
		return storage.SwapRequestRecord{}, err
	}
	updated, err := s.store.ResolveSwapRequest(ctx, request.ID, target.Label(), note, now, outbox)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return storage.SwapRequestRecord{}, s.resolutionRaceError(ctx, request.ID, target)
		case errors.Is(err, storage.ErrNotFound):
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotFound, "swap request not found")
		default:
			return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "resolve swap request", err)
		}
	}
	return updated, nil
}

func (s *Service) getSwapRequestRecord(ctx context.Context, requestID string) (storage.SwapRequestRecord, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeInvalidArgument, "swap request id is required")
	}
	record, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SwapRequestRecord{}, apperrors.New(apperrors.CodeNotFound, "swap request not found")
		}
		return storage.SwapRequestRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load swap request", err)
	}
	return record, nil
}

// swapPayload joins event and participant display data for a notification
// payload.
func (s *Service) swapPayload(ctx context.Context, request storage.SwapRequestRecord, acceptorID string, note string) (SwapEventPayload, error) {
	event, err := s.store.GetEvent(ctx, request.EventID)
	if err != nil {
		return SwapEventPayload{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load event", err)
	}
	requester, err := s.store.GetParticipant(ctx, request.RequesterID)
	if err != nil {
		return SwapEventPayload{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load requester", err)
	}
	payload := SwapEventPayload{
		RequestID: request.ID,
		EventDate: event.Date,
		Requester: requester.Name,
		Reason:    request.Reason,
		Note:      note,
	}
	acceptorID = strings.TrimSpace(acceptorID)
	if acceptorID != "" {
		acceptor, err := s.store.GetParticipant(ctx, acceptorID)
		if err != nil {
			return SwapEventPayload{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load acceptor", err)
		}
		payload.Acceptor = acceptor.Name
	}
	return payload, nil
}

// acceptRaceError classifies a lost acceptance race from current request
// state.
func (s *Service) acceptRaceError(ctx context.Context, requestID string) error {
	record, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "load swap request", err)
	}
	switch current := SwapStatusFromLabel(record.Status); current {
	case SwapStatusAccepted, SwapStatusApproved:
		return apperrors.New(apperrors.CodeAlreadyAccepted, "another participant already accepted this swap request")
	default:
		return swapTransitionError(current, SwapStatusAccepted)
	}
}

// resolutionRaceError classifies a lost resolution race from current request
// state.
func (s *Service) resolutionRaceError(ctx context.Context, requestID string, target SwapStatus) error {
	record, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "load swap request", err)
	}
	current := SwapStatusFromLabel(record.Status)
	if current.IsTerminal() {
		return swapTransitionError(current, target)
	}
	return apperrors.New(apperrors.CodeStaleRequest, "swap request changed state during resolution")
}
