package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
)

const actorContextKey = "actor"

// Auth extracts and verifies the bearer token, storing the caller identity
// for handlers downstream.
func Auth(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "authorization header must carry a bearer token")
			return
		}

		actor, err := tokens.Parse(parts[1])
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				abortUnauthorized(c, "token has expired")
				return
			}
			abortUnauthorized(c, "token is invalid")
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// mustActor reads the authenticated caller injected by Auth. Handlers should
// return immediately when ok is false.
func mustActor(c *gin.Context) (domain.Actor, bool) {
	v, exists := c.Get(actorContextKey)
	if !exists {
		abortUnauthorized(c, "authentication required")
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	if !ok || strings.TrimSpace(actor.ParticipantID) == "" {
		abortUnauthorized(c, "authentication required")
		return domain.Actor{}, false
	}
	return actor, true
}

// RequestLogger emits one structured log line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
		}
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
