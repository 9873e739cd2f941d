// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Participant errors
	CodeParticipantNameInvalid  Code = "PARTICIPANT_NAME_INVALID"
	CodeDuplicateParticipant    Code = "DUPLICATE_PARTICIPANT"
	CodeCharacterNameInvalid    Code = "CHARACTER_NAME_INVALID"
	CodeInvalidClass            Code = "INVALID_CLASS"
	CodeDuplicateCharacter      Code = "DUPLICATE_CHARACTER"

	// Event errors
	CodeEventDateInvalid Code = "EVENT_DATE_INVALID"
	CodeDuplicateEvent   Code = "DUPLICATE_EVENT"

	// Assignment errors
	CodeDuplicateAssignment     Code = "DUPLICATE_ASSIGNMENT"
	CodeInvalidAssignmentStatus Code = "INVALID_ASSIGNMENT_STATUS"

	// Swap errors
	CodeNotEligible       Code = "NOT_ELIGIBLE"
	CodeSelfSwap          Code = "SELF_SWAP"
	CodeStaleRequest      Code = "STALE_REQUEST"
	CodeDuplicatePending  Code = "DUPLICATE_PENDING"
	CodeNoAcceptor        Code = "NO_ACCEPTOR"
	CodeAlreadyAccepted   Code = "ALREADY_ACCEPTED"
	CodeInvalidTransition Code = "INVALID_TRANSITION"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// General input errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Storage errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeParticipantNameInvalid,
		CodeCharacterNameInvalid,
		CodeInvalidClass,
		CodeEventDateInvalid,
		CodeInvalidAssignmentStatus,
		CodeInvalidArgument:
		return http.StatusBadRequest

	// Conflict - state doesn't allow operation
	case CodeDuplicateParticipant,
		CodeDuplicateCharacter,
		CodeDuplicateEvent,
		CodeDuplicateAssignment,
		CodeNotEligible,
		CodeSelfSwap,
		CodeStaleRequest,
		CodeDuplicatePending,
		CodeNoAcceptor,
		CodeAlreadyAccepted,
		CodeInvalidTransition:
		return http.StatusConflict

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	case CodeUnauthorized:
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}
