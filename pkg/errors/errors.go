// Package errors defines the sentinel errors shared by the indexing and
// search components and maps them onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrStopWordsMissing = errors.New("stop-word list not found")
	ErrCollectionEmpty  = errors.New("document collection is empty")
	ErrExtractionFailed = errors.New("document extraction failed")
	ErrIndexNotFound    = errors.New("persisted index not found")
	ErrCorruptIndex     = errors.New("persisted index is corrupt")
)

// statusBySentinel lists the sentinels a client can cause. Anything else
// is a server fault.
var statusBySentinel = []struct {
	err    error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrDocumentNotFound, http.StatusNotFound},
}

// AppError pairs a sentinel with a caller-facing message and status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// HTTPStatusCode prefers an AppError's own status, then the sentinel
// table, then 500.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
