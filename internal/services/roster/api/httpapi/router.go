package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
)

// NewRouter wires every roster route behind the shared middleware chain.
// Everything under /api/v1 requires a bearer token.
func NewRouter(svc *domain.Service, tokens *TokenManager, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("roster-api"))
	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewHandler(svc)

	v1 := r.Group("/api/v1")
	v1.Use(Auth(tokens))
	{
		participants := v1.Group("/participants")
		{
			participants.POST("", h.CreateParticipant)
			participants.GET("", h.ListParticipants)
			participants.GET("/:id", h.GetParticipant)
			participants.POST("/:id/characters", h.CreateCharacter)
			participants.GET("/:id/characters", h.ListCharacters)
			participants.GET("/:id/swaps", h.ListParticipantSwaps)
		}

		events := v1.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:date", h.GetEvent)
			events.PUT("/:date/schedule", h.UpdateEventSchedule)
			events.GET("/:date/roster", h.GetRoster)
			events.POST("/:date/assignments", h.CreateAssignment)
			events.PATCH("/:date/assignments/:pid", h.SetAssignmentStatus)
			events.DELETE("/:date/assignments/:pid", h.RemoveAssignment)
			events.GET("/:date/swaps", h.ListEventSwaps)
		}

		swaps := v1.Group("/swaps")
		{
			swaps.POST("", h.CreateSwap)
			swaps.GET("", h.ListSwaps)
			swaps.GET("/:id", h.GetSwap)
			swaps.POST("/:id/accept", h.AcceptSwap)
			swaps.POST("/:id/approve", h.ApproveSwap)
			swaps.POST("/:id/deny", h.DenySwap)
			swaps.POST("/:id/cancel", h.CancelSwap)
		}

		v1.GET("/calendar", h.Calendar)
		v1.GET("/stats/overview", h.StatsOverview)
	}

	return r
}
