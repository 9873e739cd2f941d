package render

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/message"
)

const (
	// KindSwapRequested announces a newly opened swap request.
	KindSwapRequested = "swap.requested"
	// KindSwapAccepted announces a reserve participant volunteering to take a slot.
	KindSwapAccepted = "swap.accepted"
	// KindSwapApproved announces an executed slot exchange.
	KindSwapApproved = "swap.approved"
	// KindSwapDenied announces a denied swap request.
	KindSwapDenied = "swap.denied"
	// KindSwapCancelled announces a withdrawn swap request.
	KindSwapCancelled = "swap.cancelled"

	defaultGenericBody = "Roster update."
)

// Input is one render request for a stored outbox message.
type Input struct {
	Kind        string
	PayloadJSON string
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

type swapPayload struct {
	RequestID string `json:"request_id"`
	EventDate string `json:"event_date"`
	Requester string `json:"requester"`
	Acceptor  string `json:"acceptor"`
	Reason    string `json:"reason"`
	Note      string `json:"note"`
}

// Render returns localized announcement copy for one outbox message. Unknown
// kinds, unreadable payloads, and unresolved catalog keys all fall back to a
// generic line.
func Render(loc Localizer, input Input) string {
	payload := swapPayload{}
	if raw := strings.TrimSpace(input.PayloadJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return genericBody(loc)
		}
	}
	if strings.TrimSpace(payload.Requester) == "" || strings.TrimSpace(payload.EventDate) == "" {
		return genericBody(loc)
	}

	key, args := swapBodyKey(normalizeToken(input.Kind), payload)
	if key == "" {
		return genericBody(loc)
	}

	body := localize(loc, key, args...)
	if body == key {
		return genericBody(loc)
	}
	return body
}

func swapBodyKey(kind string, payload swapPayload) (string, []any) {
	switch kind {
	case KindSwapRequested:
		if payload.Reason != "" {
			return "roster.swap_requested.body_reason", []any{payload.Requester, payload.EventDate, payload.Reason}
		}
		return "roster.swap_requested.body", []any{payload.Requester, payload.EventDate}
	case KindSwapAccepted:
		return "roster.swap_accepted.body", []any{payload.Acceptor, payload.Requester, payload.EventDate}
	case KindSwapApproved:
		return "roster.swap_approved.body", []any{payload.Requester, payload.Acceptor, payload.EventDate}
	case KindSwapDenied:
		if payload.Note != "" {
			return "roster.swap_denied.body_note", []any{payload.Requester, payload.EventDate, payload.Note}
		}
		return "roster.swap_denied.body", []any{payload.Requester, payload.EventDate}
	case KindSwapCancelled:
		return "roster.swap_cancelled.body", []any{payload.Requester, payload.EventDate}
	default:
		return "", nil
	}
}

func genericBody(loc Localizer) string {
	return localizeWithFallback(loc, "roster.generic.body", defaultGenericBody)
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
