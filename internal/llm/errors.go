package llm

import "errors"

var (
	ErrEmptyPrompt     = errors.New("prompt must not be empty")
	ErrInvalidResponse = errors.New("llm provider returned invalid response")
)

// Kind is the failure category of a provider call.
type Kind string

const (
	KindRateLimit       Kind = "rate_limit"
	KindAuthentication  Kind = "authentication"
	KindTimeout         Kind = "timeout"
	KindInvalidResponse Kind = "invalid_response"
	KindUnknown         Kind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed on a later attempt.
func (k Kind) Retryable() bool {
	return k == KindRateLimit || k == KindTimeout
}

// UserMessage is the human-readable summary shown in place of the raw error.
func (k Kind) UserMessage() string {
	switch k {
	case KindRateLimit:
		return "API rate limit exceeded"
	case KindAuthentication:
		return "Invalid API key or authentication failed"
	case KindTimeout:
		return "Request timed out"
	case KindInvalidResponse:
		return "Failed to parse AI response. The response format was invalid."
	default:
		return ""
	}
}

// Error is returned by Client once a call has failed for good.
type Error struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	if msg := e.Kind.UserMessage(); msg != "" {
		return msg + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, classifying it if it is not an *Error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return Classify(err)
}
