package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

type eventView struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time,omitempty"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type assignmentView struct {
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	SlotLabel     string    `json:"slot_label"`
	Status        string    `json:"status"`
	Position      *int      `json:"position,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type rosterEntryView struct {
	EventID         string `json:"event_id"`
	ParticipantID   string `json:"participant_id"`
	ParticipantName string `json:"participant_name"`
	SlotLabel       string `json:"slot_label"`
	Class           string `json:"class,omitempty"`
	Status          string `json:"status"`
	Position        *int   `json:"position,omitempty"`
}

type calendarDayView struct {
	Event  eventView         `json:"event"`
	Roster []rosterEntryView `json:"roster"`
}

type eventCreateRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Timezone  string `json:"timezone"`
}

type eventAnnotateRequest struct {
	StartTime string `json:"start_time"`
	Timezone  string `json:"timezone"`
}

type assignmentCreateRequest struct {
	ParticipantID string `json:"participant_id"`
	SlotLabel     string `json:"slot_label"`
	Status        string `json:"status"`
	Position      *int   `json:"position"`
}

type assignmentStatusRequest struct {
	Status string `json:"status"`
}

func eventViewFrom(record storage.EventRecord) eventView {
	return eventView{
		ID:        record.ID,
		Date:      record.Date,
		StartTime: record.StartTime,
		Timezone:  record.Timezone,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func eventViewsFrom(records []storage.EventRecord) []eventView {
	views := make([]eventView, 0, len(records))
	for _, record := range records {
		views = append(views, eventViewFrom(record))
	}
	return views
}

func assignmentViewFrom(record storage.AssignmentRecord) assignmentView {
	return assignmentView{
		EventID:       record.EventID,
		ParticipantID: record.ParticipantID,
		SlotLabel:     record.SlotLabel,
		Status:        record.Status,
		Position:      record.Position,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func rosterEntryViewsFrom(entries []storage.RosterEntry) []rosterEntryView {
	views := make([]rosterEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, rosterEntryView{
			EventID:         entry.EventID,
			ParticipantID:   entry.ParticipantID,
			ParticipantName: entry.ParticipantName,
			SlotLabel:       entry.SlotLabel,
			Class:           entry.Class,
			Status:          entry.Status,
			Position:        entry.Position,
		})
	}
	return views
}

// queryInt parses an optional integer query parameter, using fallback when
// the parameter is absent.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, apperrors.New(apperrors.CodeInvalidArgument, name+" must be an integer"))
		return 0, false
	}
	return value, true
}

// queryDate returns an optional date query parameter, defaulting to the
// current UTC date.
func queryDate(c *gin.Context, name string) string {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC().Format("2006-01-02")
	}
	return raw
}

// CreateEvent creates one event on a unique date.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req eventCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.CreateEvent(c.Request.Context(), domain.CreateEventInput{
		Date:      req.Date,
		StartTime: req.StartTime,
		Timezone:  req.Timezone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, eventViewFrom(record))
}

// ListEvents lists events on or after the from date, ascending.
func (h *Handler) ListEvents(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	records, err := h.svc.ListEvents(c.Request.Context(), queryDate(c, "from"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, eventViewsFrom(records))
}

// GetEvent returns one event by date.
func (h *Handler) GetEvent(c *gin.Context) {
	record, err := h.svc.GetEvent(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, eventViewFrom(record))
}

// UpdateEventSchedule annotates one event's start time and timezone.
func (h *Handler) UpdateEventSchedule(c *gin.Context) {
	var req eventAnnotateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.AnnotateEvent(c.Request.Context(), domain.AnnotateEventInput{
		Date:      c.Param("date"),
		StartTime: req.StartTime,
		Timezone:  req.Timezone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, eventViewFrom(record))
}

// GetRoster returns one event's ordered roster snapshot.
func (h *Handler) GetRoster(c *gin.Context) {
	entries, err := h.svc.ListRoster(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rosterEntryViewsFrom(entries))
}

// CreateAssignment places one participant on an event roster.
func (h *Handler) CreateAssignment(c *gin.Context) {
	var req assignmentCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.CreateAssignment(c.Request.Context(), domain.CreateAssignmentInput{
		EventDate:     c.Param("date"),
		ParticipantID: req.ParticipantID,
		SlotLabel:     req.SlotLabel,
		Status:        req.Status,
		Position:      req.Position,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, assignmentViewFrom(record))
}

// SetAssignmentStatus updates one assignment's status in place.
func (h *Handler) SetAssignmentStatus(c *gin.Context) {
	var req assignmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.SetAssignmentStatus(c.Request.Context(), domain.SetAssignmentStatusInput{
		EventDate:     c.Param("date"),
		ParticipantID: c.Param("pid"),
		Status:        req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, assignmentViewFrom(record))
}

// RemoveAssignment deletes one assignment; removing a missing assignment
// succeeds.
func (h *Handler) RemoveAssignment(c *gin.Context) {
	if err := h.svc.RemoveAssignment(c.Request.Context(), c.Param("date"), c.Param("pid")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ListEventSwaps lists one event's unresolved swap requests.
func (h *Handler) ListEventSwaps(c *gin.Context) {
	details, err := h.svc.ListUnresolvedSwapRequestsByEvent(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapDetailViewsFrom(details))
}

// Calendar returns every event in a window of whole weeks with its roster.
func (h *Handler) Calendar(c *gin.Context) {
	weeks, ok := queryInt(c, "weeks", 2)
	if !ok {
		return
	}
	days, err := h.svc.CalendarSnapshot(c.Request.Context(), queryDate(c, "from"), weeks)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]calendarDayView, 0, len(days))
	for _, day := range days {
		views = append(views, calendarDayView{
			Event:  eventViewFrom(day.Event),
			Roster: rosterEntryViewsFrom(day.Roster),
		})
	}
	respondOK(c, views)
}

// StatsOverview returns participants ordered by primary count descending.
func (h *Handler) StatsOverview(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	records, err := h.svc.StatsOverview(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, participantViewsFrom(records))
}
