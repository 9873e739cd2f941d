package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

const (
	// MessageKindSwapRequested announces a newly created swap request.
	MessageKindSwapRequested = "swap.requested"
	// MessageKindSwapAccepted announces a reserve participant volunteering.
	MessageKindSwapAccepted = "swap.accepted"
	// MessageKindSwapApproved announces an executed slot exchange.
	MessageKindSwapApproved = "swap.approved"
	// MessageKindSwapDenied announces a denied swap request.
	MessageKindSwapDenied = "swap.denied"
	// MessageKindSwapCancelled announces a withdrawn swap request.
	MessageKindSwapCancelled = "swap.cancelled"
)

// SwapEventPayload is the notification payload carried by every swap outbox
// message.
type SwapEventPayload struct {
	RequestID string `json:"request_id"`
	EventDate string `json:"event_date"`
	Requester string `json:"requester"`
	Acceptor  string `json:"acceptor,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Note      string `json:"note,omitempty"`
}

// newSwapOutboxMessage builds one pending outbox message due immediately.
func (s *Service) newSwapOutboxMessage(kind string, payload SwapEventPayload, now time.Time) (storage.OutboxMessageRecord, error) {
	messageID, err := s.newID()
	if err != nil {
		return storage.OutboxMessageRecord{}, fmt.Errorf("generate outbox message id: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return storage.OutboxMessageRecord{}, fmt.Errorf("encode outbox payload: %w", err)
	}
	return storage.OutboxMessageRecord{
		ID:            messageID,
		Kind:          kind,
		PayloadJSON:   string(encoded),
		Status:        storage.OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
