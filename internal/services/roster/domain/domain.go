package domain

import (
	"time"

	apperrors "github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/errors"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/platform/id"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/domain/authz"
	"github.com/gavelinrobert-beep/GlizzyRaidRoster/internal/services/roster/storage"
)

// ErrStoreNotConfigured indicates the service is missing persistence wiring.
var ErrStoreNotConfigured = apperrors.New(apperrors.CodeStorageFailure, "roster store is not configured")

// Actor identifies the caller of an operation together with its role claims.
type Actor struct {
	ParticipantID string
	Name          string
	Roles         []string
}

// Service orchestrates roster assignment and swap lifecycle behavior.
type Service struct {
	store       storage.Store
	gate        authz.Gate
	autoApprove bool
	clock       func() time.Time
	newID       func() (string, error)
}

// NewService constructs roster domain use-cases. The gate guards privileged
// swap resolutions; autoApprove collapses a swap acceptance into the full
// approval effect.
func NewService(store storage.Store, gate authz.Gate, autoApprove bool, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:       store,
		gate:        gate,
		autoApprove: autoApprove,
		clock:       clock,
		newID:       newID,
	}
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
