package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a write conflicts with a uniqueness constraint.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates a conditional write lost against the current record status.
	ErrConflict = errors.New("record status conflict")
	// ErrRequesterNotPrimary indicates the swap requester no longer holds a primary assignment.
	ErrRequesterNotPrimary = errors.New("requester assignment is not primary")
	// ErrAcceptorNotReserve indicates the accepting participant does not hold a reserve assignment.
	ErrAcceptorNotReserve = errors.New("acceptor assignment is not reserve")
)

// ParticipantRecord stores one registered participant with cumulative counters.
type ParticipantRecord struct {
	ID           string
	Name         string
	PrimaryCount int
	ReserveCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CharacterRecord stores one named character a participant can be rostered under.
type CharacterRecord struct {
	ParticipantID string
	Name          string
	Class         string
	Main          bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventRecord stores one scheduled event keyed by its unique date.
type EventRecord struct {
	ID        string
	Date      string
	StartTime string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignmentRecord stores one participant's slot on one event roster.
type AssignmentRecord struct {
	EventID       string
	ParticipantID string
	SlotLabel     string
	Status        string
	Position      *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RosterEntry is one assignment joined with participant display data.
type RosterEntry struct {
	EventID         string
	ParticipantID   string
	ParticipantName string
	SlotLabel       string
	Class           string
	Status          string
	Position        *int
}

// SwapRequestRecord stores one slot-exchange request and its lifecycle state.
type SwapRequestRecord struct {
	ID             string
	EventID        string
	RequesterID    string
	AcceptorID     string
	Reason         string
	Status         string
	ResolutionNote string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
}

// SwapRequestDetail is one swap request joined with event and participant display data.
type SwapRequestDetail struct {
	SwapRequestRecord
	EventDate     string
	RequesterName string
	AcceptorName  string
}

// OutboxMessageRecord stores one notification payload awaiting delivery.
type OutboxMessageRecord struct {
	ID            string
	Kind          string
	PayloadJSON   string
	Status        string
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeliveredAt   *time.Time
}

// Outbox message lifecycle states.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusDelivered = "delivered"
	OutboxStatusDead      = "dead"
)

// ParticipantStore persists participant identity and counter state.
type ParticipantStore interface {
	PutParticipant(ctx context.Context, record ParticipantRecord) error
	GetParticipant(ctx context.Context, participantID string) (ParticipantRecord, error)
	GetParticipantByName(ctx context.Context, name string) (ParticipantRecord, error)
	ListParticipants(ctx context.Context) ([]ParticipantRecord, error)
	ListParticipantsByPrimaryCount(ctx context.Context, limit int) ([]ParticipantRecord, error)
	AdjustParticipantCounters(ctx context.Context, participantID string, primaryDelta int, reserveDelta int, now time.Time) (ParticipantRecord, error)
}

// CharacterStore persists participant character registrations.
type CharacterStore interface {
	PutCharacter(ctx context.Context, record CharacterRecord) error
	ListCharactersByParticipant(ctx context.Context, participantID string) ([]CharacterRecord, error)
	GetMainCharacter(ctx context.Context, participantID string) (CharacterRecord, error)
}

// EventStore persists scheduled event state.
type EventStore interface {
	PutEvent(ctx context.Context, record EventRecord) error
	GetEvent(ctx context.Context, eventID string) (EventRecord, error)
	GetEventByDate(ctx context.Context, date string) (EventRecord, error)
	ListEventsFrom(ctx context.Context, fromDate string, limit int) ([]EventRecord, error)
	UpdateEventSchedule(ctx context.Context, eventID string, startTime string, timezone string, now time.Time) (EventRecord, error)
}

// AssignmentStore persists event roster assignments.
type AssignmentStore interface {
	PutAssignment(ctx context.Context, record AssignmentRecord) error
	GetAssignment(ctx context.Context, eventID string, participantID string) (AssignmentRecord, error)
	UpdateAssignmentStatus(ctx context.Context, eventID string, participantID string, status string, now time.Time) (AssignmentRecord, error)
	DeleteAssignment(ctx context.Context, eventID string, participantID string) error
	ListRoster(ctx context.Context, eventID string) ([]RosterEntry, error)
}

// SwapRequestStore persists swap request lifecycle state. The accept, approve,
// and resolve operations are conditional on the request's current status and
// re-verify assignment state inside the same transaction that performs the
// write; the attached outbox message is enqueued atomically with the change.
type SwapRequestStore interface {
	CreateSwapRequest(ctx context.Context, record SwapRequestRecord, outbox OutboxMessageRecord) error
	GetSwapRequest(ctx context.Context, requestID string) (SwapRequestRecord, error)
	GetUnresolvedSwapRequestByRequester(ctx context.Context, eventID string, requesterID string) (SwapRequestRecord, error)
	ListUnresolvedSwapRequests(ctx context.Context) ([]SwapRequestDetail, error)
	ListUnresolvedSwapRequestsByEvent(ctx context.Context, eventID string) ([]SwapRequestDetail, error)
	ListUnresolvedSwapRequestsByRequester(ctx context.Context, requesterID string) ([]SwapRequestDetail, error)
	CountUnresolvedSwapRequestsByRequester(ctx context.Context, requesterID string) (int, error)
	AcceptSwapRequest(ctx context.Context, requestID string, acceptorID string, now time.Time, outbox OutboxMessageRecord) (SwapRequestRecord, error)
	ApproveSwapExchange(ctx context.Context, requestID string, expectedStatus string, acceptorID string, now time.Time, outbox OutboxMessageRecord) (SwapRequestRecord, error)
	ResolveSwapRequest(ctx context.Context, requestID string, toStatus string, note string, now time.Time, outbox OutboxMessageRecord) (SwapRequestRecord, error)
}

// OutboxStore persists notification delivery attempt state.
type OutboxStore interface {
	PutOutboxMessage(ctx context.Context, record OutboxMessageRecord) error
	ListDueOutboxMessages(ctx context.Context, limit int, now time.Time) ([]OutboxMessageRecord, error)
	MarkOutboxDelivered(ctx context.Context, messageID string, deliveredAt time.Time) error
	MarkOutboxRetry(ctx context.Context, messageID string, attemptCount int, nextAttemptAt time.Time, lastError string, now time.Time) error
	MarkOutboxDead(ctx context.Context, messageID string, attemptCount int, lastError string, now time.Time) error
}

// Store combines every roster persistence concern one backend must satisfy.
type Store interface {
	ParticipantStore
	CharacterStore
	EventStore
	AssignmentStore
	SwapRequestStore
	OutboxStore
}
