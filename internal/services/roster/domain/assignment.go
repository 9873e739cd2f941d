package domain

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

// AssignmentStatus describes a participant's relationship to one event.
type AssignmentStatus int

const (
	// AssignmentStatusUnspecified represents an invalid assignment status value.
	AssignmentStatusUnspecified AssignmentStatus = iota
	// AssignmentStatusPrimary indicates the participant holds a roster slot.
	AssignmentStatusPrimary
	// AssignmentStatusReserve indicates the participant is on standby.
	AssignmentStatusReserve
	// AssignmentStatusAbsent indicates the participant has declared absence.
	AssignmentStatusAbsent
	// AssignmentStatusExchanging indicates the participant's slot is mid-swap.
	AssignmentStatusExchanging
)

// Label returns the stored form of an assignment status.
func (s AssignmentStatus) Label() string {
	switch s {
	case AssignmentStatusPrimary:
		return "primary"
	case AssignmentStatusReserve:
		return "reserve"
	case AssignmentStatusAbsent:
		return "absent"
	case AssignmentStatusExchanging:
		return "exchanging"
	default:
		return "unspecified"
	}
}

// AssignmentStatusFromLabel parses a stored assignment status label.
func AssignmentStatusFromLabel(label string) AssignmentStatus {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "primary":
		return AssignmentStatusPrimary
	case "reserve":
		return AssignmentStatusReserve
	case "absent":
		return AssignmentStatusAbsent
	case "exchanging":
		return AssignmentStatusExchanging
	default:
		return AssignmentStatusUnspecified
	}
}

// CreateAssignmentInput describes one roster placement.
type CreateAssignmentInput struct {
	EventDate     string
	ParticipantID string
	SlotLabel     string
	Status        string
	Position      *int
}

// SetAssignmentStatusInput describes one in-place status change.
type SetAssignmentStatusInput struct {
	EventDate     string
	ParticipantID string
	Status        string
}

// AdjustCountersInput describes one explicit counter adjustment.
type AdjustCountersInput struct {
	ParticipantID string
	PrimaryDelta  int
	ReserveDelta  int
}

// CreateAssignment places one participant on one event's roster. An empty
// slot label resolves to the participant's main character name, falling back
// to the display name. Placement with primary or reserve status increments
// the matching participation counter.
func (s *Service) CreateAssignment(ctx context.Context, input CreateAssignmentInput) (storage.AssignmentRecord, error) {
	if s == nil || s.store == nil {
		return storage.AssignmentRecord{}, ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, input.EventDate)
	if err != nil {
		return storage.AssignmentRecord{}, err
	}
	participant, err := s.GetParticipant(ctx, input.ParticipantID)
	if err != nil {
		return storage.AssignmentRecord{}, err
	}

	status := AssignmentStatusPrimary
	if strings.TrimSpace(input.Status) != "" {
		status = AssignmentStatusFromLabel(input.Status)
		if status == AssignmentStatusUnspecified {
			return storage.AssignmentRecord{}, apperrors.New(apperrors.CodeInvalidAssignmentStatus, "assignment status must be one of: primary, reserve, absent, exchanging")
		}
	}
	if input.Position != nil && status != AssignmentStatusPrimary {
		return storage.AssignmentRecord{}, apperrors.New(apperrors.CodeInvalidArgument, "position applies only to primary assignments")
	}

	slotLabel := strings.TrimSpace(input.SlotLabel)
	if slotLabel == "" {
		main, err := s.store.GetMainCharacter(ctx, participant.ID)
		switch {
		case err == nil:
			slotLabel = main.Name
		case errors.Is(err, storage.ErrNotFound):
			slotLabel = participant.Name
		default:
			return storage.AssignmentRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load main character", err)
		}
	}

	now := s.nowUTC()
	record := storage.AssignmentRecord{
		EventID:       event.ID,
		ParticipantID: participant.ID,
		SlotLabel:     slotLabel,
		Status:        status.Label(),
		Position:      input.Position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.PutAssignment(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.AssignmentRecord{}, apperrors.New(apperrors.CodeDuplicateAssignment, "participant is already assigned to this event")
		}
		return storage.AssignmentRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "store assignment", err)
	}

	switch status {
	case AssignmentStatusPrimary:
		if _, err := s.store.AdjustParticipantCounters(ctx, participant.ID, 1, 0, now); err != nil {
			return storage.AssignmentRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "adjust participant counters", err)
		}
	case AssignmentStatusReserve:
		if _, err := s.store.AdjustParticipantCounters(ctx, participant.ID, 0, 1, now); err != nil {
			return storage.AssignmentRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "adjust participant counters", err)
		}
	}
	return record, nil
}

// SetAssignmentStatus updates one assignment's status in place. Counters are
// untouched; semantic counter changes are the caller's explicit decision.
func (s *Service) SetAssignmentStatus(ctx context.Context, input SetAssignmentStatusInput) (storage.AssignmentRecord, error) {
	if s == nil || s.store == nil {
		return storage.AssignmentRecord{}, ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, input.EventDate)
	if err != nil {
		return storage.AssignmentRecord{}, err
	}
	status := AssignmentStatusFromLabel(input.Status)
	if status == AssignmentStatusUnspecified {
		return storage.AssignmentRecord{}, apperrors.New(apperrors.CodeInvalidAssignmentStatus, "assignment status must be one of: primary, reserve, absent, exchanging")
	}

	updated, err := s.store.UpdateAssignmentStatus(ctx, event.ID, strings.TrimSpace(input.ParticipantID), status.Label(), s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.AssignmentRecord{}, apperrors.New(apperrors.CodeNotFound, "assignment not found")
		}
		return storage.AssignmentRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "update assignment status", err)
	}
	return updated, nil
}

// RemoveAssignment deletes one assignment; removing a missing assignment is a
// no-op.
func (s *Service) RemoveAssignment(ctx context.Context, eventDate string, participantID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, eventDate)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAssignment(ctx, event.ID, strings.TrimSpace(participantID)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "delete assignment", err)
	}
	return nil
}

// ListRoster lists one event's assignments ordered by position ascending with
// unpositioned entries last, then by participant name.
func (s *Service) ListRoster(ctx context.Context, eventDate string) ([]storage.RosterEntry, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, eventDate)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListRoster(ctx, event.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list roster", err)
	}
	return roster, nil
}

// AdjustCounters atomically applies both participation counter deltas.
func (s *Service) AdjustCounters(ctx context.Context, input AdjustCountersInput) (storage.ParticipantRecord, error) {
	if s == nil || s.store == nil {
		return storage.ParticipantRecord{}, ErrStoreNotConfigured
	}
	updated, err := s.store.AdjustParticipantCounters(ctx, strings.TrimSpace(input.ParticipantID), input.PrimaryDelta, input.ReserveDelta, s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ParticipantRecord{}, apperrors.New(apperrors.CodeNotFound, "participant not found")
		}
		return storage.ParticipantRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "adjust participant counters", err)
	}
	return updated, nil
}
