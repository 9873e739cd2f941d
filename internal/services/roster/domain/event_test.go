package domain

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain/authz"
)

func TestCreateEvent_ValidatesDateAndDefaultsTimezone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := newFakeStore()
	svc := NewService(store, authz.Gate{}, false, fixedClock(now), sequentialIDGenerator("ev-1", "ev-2"))

	created, err := svc.CreateEvent(context.Background(), CreateEventInput{Date: "2026-03-05"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if created.ID != "ev-1" || created.Date != "2026-03-05" {
		t.Fatalf("created = %+v, want ev-1 on 2026-03-05", created)
	}
	if created.Timezone != DefaultTimezone {
		t.Fatalf("created.Timezone = %q, want %q", created.Timezone, DefaultTimezone)
	}

	for _, date := range []string{"", "2026-3-05", "20260305", "03-05-2026", "2026-13-01", "2026-02-30"} {
		if _, err := svc.CreateEvent(context.Background(), CreateEventInput{Date: date}); !apperrors.IsCode(err, apperrors.CodeEventDateInvalid) {
			t.Fatalf("CreateEvent(%q) error = %v, want code %s", date, err, apperrors.CodeEventDateInvalid)
		}
	}

	if _, err := svc.CreateEvent(context.Background(), CreateEventInput{Date: "2026-03-05", StartTime: "20:00"}); !apperrors.IsCode(err, apperrors.CodeDuplicateEvent) {
		t.Fatalf("duplicate date error = %v, want code %s", err, apperrors.CodeDuplicateEvent)
	}
}

func TestAnnotateEvent_UpdatesScheduleAndResetsTimezone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedEvent(t, store, "ev-1", "2026-03-05", now)
	svc := NewService(store, authz.Gate{}, false, fixedClock(now), sequentialIDGenerator())

	updated, err := svc.AnnotateEvent(context.Background(), AnnotateEventInput{
		Date:      "2026-03-05",
		StartTime: "19:30",
		Timezone:  "Europe/Stockholm",
	})
	if err != nil {
		t.Fatalf("annotate event: %v", err)
	}
	if updated.StartTime != "19:30" || updated.Timezone != "Europe/Stockholm" {
		t.Fatalf("updated = %+v, want 19:30 Europe/Stockholm", updated)
	}

	reset, err := svc.AnnotateEvent(context.Background(), AnnotateEventInput{Date: "2026-03-05", StartTime: "19:30"})
	if err != nil {
		t.Fatalf("annotate event without timezone: %v", err)
	}
	if reset.Timezone != DefaultTimezone {
		t.Fatalf("reset.Timezone = %q, want %q", reset.Timezone, DefaultTimezone)
	}

	if _, err := svc.AnnotateEvent(context.Background(), AnnotateEventInput{Date: "2026-03-12", StartTime: "19:30"}); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("unknown event error = %v, want code %s", err, apperrors.CodeNotFound)
	}
}

func TestListEvents_FiltersFromDateAndLimit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedEvent(t, store, "ev-1", "2026-03-05", now)
	seedEvent(t, store, "ev-2", "2026-03-12", now)
	seedEvent(t, store, "ev-3", "2026-02-26", now)
	svc := NewService(store, authz.Gate{}, false, fixedClock(now), sequentialIDGenerator())

	events, err := svc.ListEvents(context.Background(), "2026-03-01", 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].Date != "2026-03-05" || events[1].Date != "2026-03-12" {
		t.Fatalf("events = %+v, want the two March dates ascending", events)
	}

	limited, err := svc.ListEvents(context.Background(), "2026-02-01", 1)
	if err != nil {
		t.Fatalf("list events with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].Date != "2026-02-26" {
		t.Fatalf("limited = %+v, want only 2026-02-26", limited)
	}

	if _, err := svc.ListEvents(context.Background(), "yesterday", 0); !apperrors.IsCode(err, apperrors.CodeEventDateInvalid) {
		t.Fatalf("bad from error = %v, want code %s", err, apperrors.CodeEventDateInvalid)
	}
}

func TestCalendarSnapshot_WindowsEventsWithRosters(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedParticipant(t, store, "p-1", "Aldranath", 1, 0, now)
	seedEvent(t, store, "ev-1", "2026-03-02", now)
	seedEvent(t, store, "ev-2", "2026-03-09", now)
	seedEvent(t, store, "ev-3", "2026-03-30", now)
	seedAssignment(t, store, "ev-1", "p-1", "Aldranath", "primary", ptrInt(1), now)
	svc := NewService(store, authz.Gate{}, false, fixedClock(now), sequentialIDGenerator())

	days, err := svc.CalendarSnapshot(context.Background(), "2026-03-02", 2)
	if err != nil {
		t.Fatalf("calendar snapshot: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2 events inside the two-week window", len(days))
	}
	if days[0].Event.Date != "2026-03-02" || days[1].Event.Date != "2026-03-09" {
		t.Fatalf("days = [%s %s], want [2026-03-02 2026-03-09]", days[0].Event.Date, days[1].Event.Date)
	}
	if len(days[0].Roster) != 1 || days[0].Roster[0].ParticipantName != "Aldranath" {
		t.Fatalf("first day roster = %+v, want Aldranath's assignment", days[0].Roster)
	}
	if len(days[1].Roster) != 0 {
		t.Fatalf("second day roster = %+v, want empty", days[1].Roster)
	}

	for _, weeks := range []int{0, 13} {
		if _, err := svc.CalendarSnapshot(context.Background(), "2026-03-02", weeks); !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
			t.Fatalf("CalendarSnapshot weeks=%d error = %v, want code %s", weeks, err, apperrors.CodeInvalidArgument)
		}
	}
	if _, err := svc.CalendarSnapshot(context.Background(), "not-a-date", 2); !apperrors.IsCode(err, apperrors.CodeEventDateInvalid) {
		t.Fatalf("bad from error = %v, want code %s", err, apperrors.CodeEventDateInvalid)
	}
}

func TestStatsOverview_OrdersByPrimaryCount(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedParticipant(t, store, "p-1", "Briarwind", 5, 0, now)
	seedParticipant(t, store, "p-2", "Aldranath", 5, 1, now)
	seedParticipant(t, store, "p-3", "Cinderwake", 2, 3, now)
	svc := NewService(store, authz.Gate{}, false, fixedClock(now), sequentialIDGenerator())

	overview, err := svc.StatsOverview(context.Background(), 2)
	if err != nil {
		t.Fatalf("stats overview: %v", err)
	}
	if len(overview) != 2 {
		t.Fatalf("len(overview) = %d, want 2", len(overview))
	}
	if overview[0].Name != "Aldranath" || overview[1].Name != "Briarwind" {
		t.Fatalf("overview = [%s %s], want ties broken by name", overview[0].Name, overview[1].Name)
	}
}
