package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/iho/splitledger/internal/domain"
)

// Error is a non-2xx answer from the remote API. It unwraps to the domain error
// matching its status code.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap maps the status code onto domain errors.
func (e *Error) Unwrap() error {
	return statusError(e.StatusCode)
}

func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return domain.ErrRemoteUnavailable
	default:
		return domain.ErrRemoteRejected
	}
}

// retryableStatus lists answers worth another attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// newError builds an Error from a response body in the documented
// {"error","message"} shape. Plain-text bodies become the message.
func newError(method, path string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Method: method, Path: path}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Code = eb.Error
		e.Message = eb.Message
		return e
	}

	text := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(text) > maxMessageRunes {
		text = string([]rune(text)[:maxMessageRunes])
	}
	e.Message = text
	return e
}

// IsRemoteFailure reports whether err means the remote side is unhealthy, as
// opposed to rejecting the request.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, domain.ErrRemoteUnavailable)
}
