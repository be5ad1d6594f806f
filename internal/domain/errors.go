package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrEntitlementRequired = errors.New("active subscription required")
	ErrInsufficientTokens  = errors.New("not enough tokens")
)

// GenericErrorMessage is shown when a failure carries no usable text.
const GenericErrorMessage = "Something went wrong or the server is not responding. Try again or do it later."

// TransportError reports that no usable HTTP response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a failure reported by the backend, either through a non-2xx
// status or through the error flag of the response envelope.
type ServerError struct {
	StatusCode int
	Code       *string
	Message    *string
}

func (e *ServerError) Error() string {
	var b strings.Builder
	if e.Code != nil && *e.Code != "" {
		fmt.Fprintf(&b, "[%s] ", *e.Code)
	}
	if e.Message != nil && *e.Message != "" {
		b.WriteString(*e.Message)
	} else {
		b.WriteString("Unknown server error")
	}
	return b.String()
}

// MalformedResponseError reports a body that could not be decoded on an
// otherwise successful exchange.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// EncodingError reports that the input photo could not be prepared for
// upload. It is raised before any request is sent.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "Failed to prepare photo for generation."
	}
	return fmt.Sprintf("Failed to prepare photo for generation: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// TimeoutError reports that polling hit its attempt ceiling without a
// terminal status.
type TimeoutError struct {
	JobID    string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return "Timeout while waiting for generation"
}

// UserMessage is the text to show for err: the server's own message when it
// sent one, a generic fallback when nothing specific is available.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var srv *ServerError
	if errors.As(err, &srv) {
		if srv.Message != nil && strings.TrimSpace(*srv.Message) != "" {
			return srv.Error()
		}
		return GenericErrorMessage
	}
	var transport *TransportError
	var malformed *MalformedResponseError
	if errors.As(err, &transport) || errors.As(err, &malformed) {
		return GenericErrorMessage
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericErrorMessage
}
