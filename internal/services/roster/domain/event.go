package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

const (
	// DefaultTimezone labels event times that carry no explicit timezone.
	DefaultTimezone = "Server Time"

	eventDateLayout  = "2006-01-02"
	defaultListLimit = 50
	maxListLimit     = 200
	maxSnapshotWeeks = 12
)

// CreateEventInput describes one event creation.
type CreateEventInput struct {
	Date      string
	StartTime string
	Timezone  string
}

// AnnotateEventInput describes one event schedule annotation.
type AnnotateEventInput struct {
	Date      string
	StartTime string
	Timezone  string
}

// CalendarDay is one event with its ordered roster snapshot.
type CalendarDay struct {
	Event  storage.EventRecord
	Roster []storage.RosterEntry
}

// CreateEvent creates one event on a unique date.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (storage.EventRecord, error) {
	if s == nil || s.store == nil {
		return storage.EventRecord{}, ErrStoreNotConfigured
	}
	date, err := validateEventDate(input.Date)
	if err != nil {
		return storage.EventRecord{}, err
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = DefaultTimezone
	}

	eventID, err := s.newID()
	if err != nil {
		return storage.EventRecord{}, fmt.Errorf("generate event id: %w", err)
	}
	now := s.nowUTC()
	record := storage.EventRecord{
		ID:        eventID,
		Date:      date,
		StartTime: strings.TrimSpace(input.StartTime),
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.PutEvent(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.EventRecord{}, apperrors.New(apperrors.CodeDuplicateEvent, "an event already exists on this date")
		}
		return storage.EventRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "store event", err)
	}
	return record, nil
}

// AnnotateEvent updates one event's time and timezone annotation. An empty
// timezone falls back to the default label.
func (s *Service) AnnotateEvent(ctx context.Context, input AnnotateEventInput) (storage.EventRecord, error) {
	if s == nil || s.store == nil {
		return storage.EventRecord{}, ErrStoreNotConfigured
	}
	event, err := s.GetEvent(ctx, input.Date)
	if err != nil {
		return storage.EventRecord{}, err
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = DefaultTimezone
	}
	updated, err := s.store.UpdateEventSchedule(ctx, event.ID, strings.TrimSpace(input.StartTime), timezone, s.nowUTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.EventRecord{}, apperrors.New(apperrors.CodeNotFound, "event not found")
		}
		return storage.EventRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "update event schedule", err)
	}
	return updated, nil
}

// GetEvent loads one event by its normalized date.
func (s *Service) GetEvent(ctx context.Context, date string) (storage.EventRecord, error) {
	if s == nil || s.store == nil {
		return storage.EventRecord{}, ErrStoreNotConfigured
	}
	normalized, err := validateEventDate(date)
	if err != nil {
		return storage.EventRecord{}, err
	}
	record, err := s.store.GetEventByDate(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.EventRecord{}, apperrors.New(apperrors.CodeNotFound, "event not found")
		}
		return storage.EventRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "load event", err)
	}
	return record, nil
}

// ListEvents lists events on or after a date, ascending.
func (s *Service) ListEvents(ctx context.Context, from string, limit int) ([]storage.EventRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	date, err := validateEventDate(from)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	records, err := s.store.ListEventsFrom(ctx, date, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list events", err)
	}
	return records, nil
}

// StatsOverview lists participants ordered by primary count descending, ties
// broken by name.
func (s *Service) StatsOverview(ctx context.Context, limit int) ([]storage.ParticipantRecord, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	records, err := s.store.ListParticipantsByPrimaryCount(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list participant stats", err)
	}
	return records, nil
}

// CalendarSnapshot returns the ordered roster of every event in a window of
// whole weeks starting at from, keyed by ascending date.
func (s *Service) CalendarSnapshot(ctx context.Context, from string, weeks int) ([]CalendarDay, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	date, err := validateEventDate(from)
	if err != nil {
		return nil, err
	}
	if weeks < 1 || weeks > maxSnapshotWeeks {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "weeks must be between 1 and 12")
	}

	start, err := time.Parse(eventDateLayout, date)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeEventDateInvalid, "event date must be formatted YYYY-MM-DD")
	}
	end := start.AddDate(0, 0, weeks*7).Format(eventDateLayout)

	events, err := s.store.ListEventsFrom(ctx, date, weeks*7)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list events", err)
	}
	days := make([]CalendarDay, 0, len(events))
	for _, event := range events {
		if event.Date >= end {
			break
		}
		roster, err := s.store.ListRoster(ctx, event.ID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "list roster", err)
		}
		days = append(days, CalendarDay{Event: event, Roster: roster})
	}
	return days, nil
}

// validateEventDate normalizes and checks the YYYY-MM-DD date shape.
func validateEventDate(raw string) (string, error) {
	date := strings.TrimSpace(raw)
	if len(date) != len(eventDateLayout) {
		return "", apperrors.New(apperrors.CodeEventDateInvalid, "event date must be formatted YYYY-MM-DD")
	}
	if _, err := time.Parse(eventDateLayout, date); err != nil {
		return "", apperrors.New(apperrors.CodeEventDateInvalid, "event date must be formatted YYYY-MM-DD")
	}
	return date, nil
}
