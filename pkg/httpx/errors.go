package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError standardizes API error responses and logging context.
type HTTPError struct {
	StatusCode int            `json:"-"`
	Message    string         `json:"message"`
	Code       string         `json:"code"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Status returns the response status, 500 when unset.
func (e *HTTPError) Status() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// WithCode overrides the machine-readable code, keeping status and message.
func (e *HTTPError) WithCode(code string) *HTTPError {
	e.Code = code
	return e
}

func newError(status int, code, msg string, err error) *HTTPError {
	return &HTTPError{StatusCode: status, Message: msg, Code: code, Err: err}
}

func BadRequest(msg string, err error) *HTTPError {
	return newError(http.StatusBadRequest, "bad_request", msg, err)
}

func NotFound(msg string, err error) *HTTPError {
	return newError(http.StatusNotFound, "not_found", msg, err)
}

func Conflict(msg string, err error) *HTTPError {
	return newError(http.StatusConflict, "conflict", msg, err)
}

func UnprocessableEntity(msg string, err error) *HTTPError {
	return newError(http.StatusUnprocessableEntity, "unprocessable", msg, err)
}

func Internal(msg string, err error) *HTTPError {
	return newError(http.StatusInternalServerError, "internal", msg, err)
}

// Is compares target code regardless of wrapped error.
func Is(err error, code string) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code == code
	}
	return false
}
