package errors

import (
	"errors"
	"net/http"
)

// HandleError resolves any error to the HTTP status, code, and message the
// API layer should respond with. Non-domain errors collapse to an internal
// status with a generic message so storage details never leak to clients.
func HandleError(err error) (status int, code Code, message string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code.HTTPStatus(), appErr.Code, appErr.Message
	}

	return http.StatusInternalServerError, CodeUnknown, "an unexpected error occurred"
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata extracts metadata from an error if present.
// Returns nil if the error is not a domain error or has no metadata.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}
