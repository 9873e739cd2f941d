package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

type swapView struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	RequesterID    string     `json:"requester_id"`
	AcceptorID     string     `json:"acceptor_id,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Status         string     `json:"status"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

type swapDetailView struct {
	swapView
	EventDate     string `json:"event_date"`
	RequesterName string `json:"requester_name"`
	AcceptorName  string `json:"acceptor_name,omitempty"`
}

type swapCreateRequest struct {
	EventDate string `json:"event_date"`
	Reason    string `json:"reason"`
}

type swapDenyRequest struct {
	Note string `json:"note"`
}

func swapViewFrom(record storage.SwapRequestRecord) swapView {
	return swapView{
		ID:             record.ID,
		EventID:        record.EventID,
		RequesterID:    record.RequesterID,
		AcceptorID:     record.AcceptorID,
		Reason:         record.Reason,
		Status:         record.Status,
		ResolutionNote: record.ResolutionNote,
		CreatedAt:      record.CreatedAt,
		ResolvedAt:     record.ResolvedAt,
	}
}

func swapDetailViewsFrom(details []storage.SwapRequestDetail) []swapDetailView {
	views := make([]swapDetailView, 0, len(details))
	for _, detail := range details {
		views = append(views, swapDetailView{
			swapView:      swapViewFrom(detail.SwapRequestRecord),
			EventDate:     detail.EventDate,
			RequesterName: detail.RequesterName,
			AcceptorName:  detail.AcceptorName,
		})
	}
	return views
}

// CreateSwap opens a pending swap request for the caller's primary slot.
func (h *Handler) CreateSwap(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req swapCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.CreateSwapRequest(c.Request.Context(), actor, domain.CreateSwapRequestInput{
		EventDate: req.EventDate,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, swapViewFrom(record))
}

// ListSwaps lists every unresolved swap request newest first.
func (h *Handler) ListSwaps(c *gin.Context) {
	details, err := h.svc.ListUnresolvedSwapRequests(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapDetailViewsFrom(details))
}

// GetSwap returns one swap request by id.
func (h *Handler) GetSwap(c *gin.Context) {
	record, err := h.svc.GetSwapRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapViewFrom(record))
}

// AcceptSwap records the caller as the accepting participant.
func (h *Handler) AcceptSwap(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	record, err := h.svc.AcceptSwapRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapViewFrom(record))
}

// ApproveSwap executes the slot exchange for one accepted request.
func (h *Handler) ApproveSwap(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	record, err := h.svc.ApproveSwapRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapViewFrom(record))
}

// DenySwap rejects one unresolved request. The note body is optional.
func (h *Handler) DenySwap(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req swapDenyRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.DenySwapRequest(c.Request.Context(), actor, c.Param("id"), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapViewFrom(record))
}

// CancelSwap withdraws one unresolved request.
func (h *Handler) CancelSwap(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	record, err := h.svc.CancelSwapRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapViewFrom(record))
}
