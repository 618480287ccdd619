// Package errors holds the error kinds decviz reports to HTTP and MCP clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Wrap them with fmt.Errorf("...: %w", ErrX) to pick the
// status a client sees.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	// ErrRender marks a failure of the external Graphviz renderer.
	ErrRender = errors.New("render failed")
	// ErrUnavailable marks a feature that is disabled in the running configuration.
	ErrUnavailable = errors.New("unavailable")
)

// kinds is checked in order; the first sentinel err wraps decides the status.
var kinds = []struct {
	sentinel error
	code     int
	message  string
}{
	{ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{ErrNotFound, http.StatusNotFound, "Not found"},
	{ErrRender, http.StatusBadGateway, "Render failed"},
	{ErrUnavailable, http.StatusServiceUnavailable, "Service unavailable"},
}

// AppError is an error with the HTTP status and message shown to clients.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid returns a 400 AppError whose message is shown to the client as is.
func Invalid(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

// NotFound returns a 404 AppError. err may be nil.
func NotFound(message string, err error) *AppError {
	if err == nil {
		err = ErrNotFound
	}
	return NewAppError(http.StatusNotFound, message, err)
}

// Unavailable returns a 503 AppError for a disabled feature.
func Unavailable(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, ErrUnavailable)
}

// RenderFailed returns a 502 AppError carrying the renderer's own message.
func RenderFailed(err error) *AppError {
	return NewAppError(http.StatusBadGateway, err.Error(), err)
}

// MapError converts err into an AppError. Existing AppErrors in the chain
// are returned unchanged; anything unrecognized becomes a 500.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return NewAppError(k.code, k.message, err)
		}
	}
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
