package httpapi

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
)

// Handler exposes the roster service over HTTP. One instance serves every
// route; resource-specific methods live in the files named after them.
type Handler struct {
	svc *domain.Service
}

// NewHandler builds a Handler around one roster service.
func NewHandler(svc *domain.Service) *Handler {
	return &Handler{svc: svc}
}

// bindJSON decodes the request body into dest. A malformed body is reported
// to the client; the caller should return when ok is false.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, apperrors.New(apperrors.CodeInvalidArgument, "request body must be valid JSON"))
		return false
	}
	return true
}
