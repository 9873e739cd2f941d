package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain"
)

var (
	// ErrTokenExpired indicates a bearer token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed, unsigned, or tampered token.
	ErrTokenInvalid = errors.New("token invalid")
)

const tokenIssuer = "glizzy-roster"

// Claims carries the caller identity inside a signed bearer token.
type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwtv5.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens for the API.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a token manager from the shared signing secret.
func NewTokenManager(secret string) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &TokenManager{secret: []byte(secret)}, nil
}

// Issue signs a token identifying the actor, valid for the given duration.
func (m *TokenManager) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  actor.Name,
		Roles: actor.Roles,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   actor.ParticipantID,
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies a token and returns the actor it identifies.
func (m *TokenManager) Parse(raw string) (domain.Actor, error) {
	token, err := jwtv5.ParseWithClaims(raw, &Claims{}, func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return domain.Actor{}, ErrTokenExpired
		}
		return domain.Actor{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Actor{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Actor{}, ErrTokenInvalid
	}

	return domain.Actor{
		ParticipantID: claims.Subject,
		Name:          claims.Name,
		Roles:         claims.Roles,
	}, nil
}
