package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
)

// Envelope is the uniform response shape for every API route. Code is empty
// on success and carries the domain error code otherwise.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Message: "ok", Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Message: "ok", Data: data})
}

// respondError maps any error to its HTTP status and envelope via the domain
// error code.
func respondError(c *gin.Context, err error) {
	status, code, message := apperrors.HandleError(err)
	c.JSON(status, Envelope{Code: string(code), Message: message})
}

// abortUnauthorized rejects an unauthenticated request before routing
// continues. Role-based denials map through respondError as 403 instead.
func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		Code:    string(apperrors.CodeUnauthorized),
		Message: message,
	})
}
