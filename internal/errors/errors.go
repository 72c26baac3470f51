package errors

import (
	"errors"
	"net/http"
)

// Domain error kinds. Handlers map these to HTTP status codes with StatusCode;
// everything else in between wraps them with fmt.Errorf and %w.
var (
	ErrNotFound        = errors.New("not found")
	ErrInactive        = errors.New("parking space is inactive")
	ErrInvalidInterval = errors.New("end time must be after start time")
	ErrNoAvailability  = errors.New("no available slots for the selected time period")
	ErrInvalidState    = errors.New("operation not allowed for current booking status")
	ErrUnauthorized    = errors.New("caller is not authorized")
	ErrContention      = errors.New("could not acquire lock, retry the operation")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusCode resolves an error to the HTTP status it should surface as.
// NoAvailability is a conflict, not a not-found: the client can retry with
// another slot or window. Contention maps to 503 so callers know the whole
// operation may be retried as-is.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInactive), errors.Is(err, ErrInvalidInterval), errors.Is(err, ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoAvailability):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
