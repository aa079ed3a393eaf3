package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/costlab/pkg/models"
)

// Classify maps a provider failure to a Kind. Structured data (provider
// status codes, context deadlines, network timeouts, JSON syntax errors) is
// consulted first; message heuristics are only a fallback.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}

	var pe *models.ProviderError
	if errors.As(err, &pe) {
		if k, ok := classifyProviderError(pe); ok {
			return k
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	var se *json.SyntaxError
	if errors.As(err, &se) {
		return KindInvalidResponse
	}

	return classifyMessage(err.Error())
}

func classifyProviderError(pe *models.ProviderError) (Kind, bool) {
	switch strings.ToUpper(pe.Code) {
	case "RESOURCE_EXHAUSTED", "RATE_LIMIT_EXCEEDED", "INSUFFICIENT_QUOTA":
		return KindRateLimit, true
	case "UNAUTHENTICATED", "PERMISSION_DENIED", "INVALID_API_KEY":
		return KindAuthentication, true
	case "DEADLINE_EXCEEDED":
		return KindTimeout, true
	}

	switch pe.StatusCode {
	case http.StatusTooManyRequests:
		return KindRateLimit, true
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication, true
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout, true
	}

	// Gemini reports a bad key as 400 INVALID_ARGUMENT.
	if strings.Contains(strings.ToLower(pe.Message), "api key not valid") {
		return KindAuthentication, true
	}
	return "", false
}

func classifyMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "quota"):
		return KindRateLimit
	case strings.Contains(lower, "api key"), strings.Contains(lower, "authentication"):
		return KindAuthentication
	case strings.Contains(lower, "timeout"):
		return KindTimeout
	case strings.Contains(lower, "json"), strings.Contains(lower, "parse"):
		return KindInvalidResponse
	default:
		return KindUnknown
	}
}
