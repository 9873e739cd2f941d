package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

const (
	participantNameMinLen = 2
	participantNameMaxLen = 50
	characterNameMinLen   = 2
	characterNameMaxLen   = 20
)

// RegisterParticipantInput describes one participant registration.
type RegisterParticipantInput struct {
	Name string
}

// RegisterCharacterInput describes one character registration.
type RegisterCharacterInput struct {
	ParticipantID string
	Name          string
	Class         string
	Main          bool
}

// ParticipantStats is one participant joined with live swap activity.
type ParticipantStats struct {
	Participant         storage.ParticipantRecord
	UnresolvedSwapCount int
}

// RegisterParticipant creates one participant with zeroed counters.
func (s *Service) RegisterParticipant(ctx context.Context, input RegisterParticipantInput) (storage.ParticipantRecord, error) {
	if s == nil || s.store == nil {
		return storage.ParticipantRecord{}, ErrStoreNotConfigured
	}
	name := strings.TrimSpace(input.Name)
	if length := utf8.RuneCountInString(name); length < participantNameMinLen || length > participantNameMaxLen {
		return storage.ParticipantRecord{}, apperrors.New(apperrors.CodeParticipantNameInvalid, "participant name must be between 2 and 50 characters")
	}

	participantID, err := s.newID()
	if err != nil {
		return storage.ParticipantRecord{}, fmt.Errorf("generate participant id: %w", err)
	}
	now := s.nowUTC()
	record := storage.ParticipantRecord{
		ID:        participantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutParticipant(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.ParticipantRecord{}, apperrors.New(apperrors.CodeDuplicateParticipant, "participant name is already registered")
		}
		return storage.ParticipantRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "store participant", err)
	}
	return record, nil
}

// GetParticipant loads one participant by id.
func (s *Service) GetParticipant(ctx context.Context, participantID string) (storage.ParticipantRecord, error) {
	if s == nil || s.store == nil {
		return storage.ParticipantRecord{}, ErrStoreNotConfigured
	}
	record, err := s.store.GetParticipant(ctx, strings.TrimSpace(participantID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ParticipantRecord{}, apperrors.New(apperrors.CodeNotFound, "participant not found")
		}
		return storage.ParticipantRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load participant", err)
	}
	return record, nil
}

// ListParticipants lists every participant ordered by display name.
func (s *Service) ListParticipants(ctx context.Context) ([]storage.ParticipantRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	records, err := s.store.ListParticipants(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list participants", err)
	}
	return records, nil
}

// GetParticipantStats loads one participant with its unresolved swap count.
func (s *Service) GetParticipantStats(ctx context.Context, participantID string) (ParticipantStats, error) {
	participant, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return ParticipantStats{}, err
	}
	count, err := s.store.CountUnresolvedSwapRequestsByRequester(ctx, participant.ID)
	if err != nil {
		return ParticipantStats{}, apperrors.Wrap(apperrors.CodeStorageFailure, "count unresolved swap requests", err)
	}
	return ParticipantStats{Participant: participant, UnresolvedSwapCount: count}, nil
}

// RegisterCharacter creates one character for a participant. The first
// registered character becomes the main; an explicit main demotes the
// previous one.
func (s *Service) RegisterCharacter(ctx context.Context, input RegisterCharacterInput) (storage.CharacterRecord, error) {
	if s == nil || s.store == nil {
		return storage.CharacterRecord{}, ErrStoreNotConfigured
	}
	name := strings.TrimSpace(input.Name)
	if length := utf8.RuneCountInString(name); length < characterNameMinLen || length > characterNameMaxLen {
		return storage.CharacterRecord{}, apperrors.New(apperrors.CodeCharacterNameInvalid, "character name must be between 2 and 20 characters")
	}
	class, err := NormalizeClass(input.Class)
	if err != nil {
		return storage.CharacterRecord{}, err
	}
	participant, err := s.GetParticipant(ctx, input.ParticipantID)
	if err != nil {
		return storage.CharacterRecord{}, err
	}

	main := input.Main
	if !main {
		if _, err := s.store.GetMainCharacter(ctx, participant.ID); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return storage.CharacterRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load main character", err)
			}
			main = true
		}
	}

	now := s.nowUTC()
	record := storage.CharacterRecord{
		ParticipantID: participant.ID,
		Name:          name,
		Class:         class,
		Main:          main,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.PutCharacter(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.CharacterRecord{}, apperrors.New(apperrors.CodeDuplicateCharacter, "character name is already registered for this participant")
		}
		return storage.CharacterRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "store character", err)
	}
	return record, nil
}

// ListCharacters lists one participant's characters, main first.
func (s *Service) ListCharacters(ctx context.Context, participantID string) ([]storage.CharacterRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	participant, err := s.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListCharactersByParticipant(ctx, participant.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list characters", err)
	}
	return records, nil
}
