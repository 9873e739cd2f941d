package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

type participantView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PrimaryCount int       `json:"primary_count"`
	ReserveCount int       `json:"reserve_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type participantStatsView struct {
	participantView
	UnresolvedSwapCount int `json:"unresolved_swap_count"`
}

type characterView struct {
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	Class         string    `json:"class"`
	Main          bool      `json:"main"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type participantCreateRequest struct {
	Name string `json:"name"`
}

type characterCreateRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Main  bool   `json:"main"`
}

func participantViewFrom(record storage.ParticipantRecord) participantView {
	return participantView{
		ID:           record.ID,
		Name:         record.Name,
		PrimaryCount: record.PrimaryCount,
		ReserveCount: record.ReserveCount,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func participantViewsFrom(records []storage.ParticipantRecord) []participantView {
	views := make([]participantView, 0, len(records))
	for _, record := range records {
		views = append(views, participantViewFrom(record))
	}
	return views
}

func characterViewFrom(record storage.CharacterRecord) characterView {
	return characterView{
		ParticipantID: record.ParticipantID,
		Name:          record.Name,
		Class:         record.Class,
		Main:          record.Main,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}

func characterViewsFrom(records []storage.CharacterRecord) []characterView {
	views := make([]characterView, 0, len(records))
	for _, record := range records {
		views = append(views, characterViewFrom(record))
	}
	return views
}

// CreateParticipant registers one participant.
func (h *Handler) CreateParticipant(c *gin.Context) {
	var req participantCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.RegisterParticipant(c.Request.Context(), domain.RegisterParticipantInput{Name: req.Name})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, participantViewFrom(record))
}

// ListParticipants lists every participant ordered by name.
func (h *Handler) ListParticipants(c *gin.Context) {
	records, err := h.svc.ListParticipants(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, participantViewsFrom(records))
}

// GetParticipant returns one participant with its unresolved swap count.
func (h *Handler) GetParticipant(c *gin.Context) {
	stats, err := h.svc.GetParticipantStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, participantStatsView{
		participantView:     participantViewFrom(stats.Participant),
		UnresolvedSwapCount: stats.UnresolvedSwapCount,
	})
}

// CreateCharacter registers one character under a participant.
func (h *Handler) CreateCharacter(c *gin.Context) {
	var req characterCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.svc.RegisterCharacter(c.Request.Context(), domain.RegisterCharacterInput{
		ParticipantID: c.Param("id"),
		Name:          req.Name,
		Class:         req.Class,
		Main:          req.Main,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, characterViewFrom(record))
}

// ListCharacters lists one participant's characters, main first.
func (h *Handler) ListCharacters(c *gin.Context) {
	records, err := h.svc.ListCharacters(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, characterViewsFrom(records))
}

// ListParticipantSwaps lists one participant's unresolved swap requests.
func (h *Handler) ListParticipantSwaps(c *gin.Context) {
	details, err := h.svc.ListUnresolvedSwapRequestsByRequester(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, swapDetailViewsFrom(details))
}
