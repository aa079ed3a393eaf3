package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kiranshivaraju/costlab/internal/llm"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	var syntaxErr error
	{
		var v any
		syntaxErr = json.Unmarshal([]byte("{"), &v)
	}

	tests := []struct {
		name string
		err  error
		want llm.Kind
	}{
		{"nil", nil, llm.KindUnknown},
		{"gemini resource exhausted", &models.ProviderError{StatusCode: 429, Code: "RESOURCE_EXHAUSTED"}, llm.KindRateLimit},
		{"openai insufficient quota", &models.ProviderError{StatusCode: 429, Code: "insufficient_quota"}, llm.KindRateLimit},
		{"bare 429", &models.ProviderError{StatusCode: 429}, llm.KindRateLimit},
		{"401", &models.ProviderError{StatusCode: 401}, llm.KindAuthentication},
		{"403 permission denied", &models.ProviderError{StatusCode: 403, Code: "PERMISSION_DENIED"}, llm.KindAuthentication},
		{"openai invalid key", &models.ProviderError{StatusCode: 401, Code: "invalid_api_key"}, llm.KindAuthentication},
		{"gemini bad key is 400", &models.ProviderError{StatusCode: 400, Code: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."}, llm.KindAuthentication},
		{"504", &models.ProviderError{StatusCode: 504}, llm.KindTimeout},
		{"deadline exceeded code", &models.ProviderError{StatusCode: 500, Code: "DEADLINE_EXCEEDED"}, llm.KindTimeout},
		{"500 falls through to message", &models.ProviderError{StatusCode: 500, Message: "internal"}, llm.KindUnknown},
		{"wrapped provider error", fmt.Errorf("call: %w", &models.ProviderError{StatusCode: 429}), llm.KindRateLimit},
		{"context deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), llm.KindTimeout},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), llm.KindTimeout},
		{"json syntax", syntaxErr, llm.KindInvalidResponse},
		{"message rate limit", errors.New("Rate limit reached for requests"), llm.KindRateLimit},
		{"message quota", errors.New("Quota exceeded for metric"), llm.KindRateLimit},
		{"message api key", errors.New("Incorrect API key provided"), llm.KindAuthentication},
		{"message authentication", errors.New("Authentication required"), llm.KindAuthentication},
		{"message timeout", errors.New("upstream timeout"), llm.KindTimeout},
		{"message parse", errors.New("could not parse body"), llm.KindInvalidResponse},
		{"context canceled", context.Canceled, llm.KindUnknown},
		{"other", errors.New("connection refused"), llm.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.Classify(tt.err))
		})
	}
}

func TestClassify_PrefersStructuredOverMessage(t *testing.T) {
	// The message mentions a timeout but the status says rate limit.
	err := &models.ProviderError{StatusCode: 429, Message: "timeout waiting for quota slot"}
	assert.Equal(t, llm.KindRateLimit, llm.Classify(err))
}

func TestKind_Retryable(t *testing.T) {
	assert.True(t, llm.KindRateLimit.Retryable())
	assert.True(t, llm.KindTimeout.Retryable())
	assert.False(t, llm.KindAuthentication.Retryable())
	assert.False(t, llm.KindInvalidResponse.Retryable())
	assert.False(t, llm.KindUnknown.Retryable())
}

func TestError_Message(t *testing.T) {
	err := &llm.Error{Kind: llm.KindTimeout, Err: errors.New("deadline")}
	assert.Equal(t, "Request timed out: deadline", err.Error())

	err = &llm.Error{Kind: llm.KindUnknown, Err: errors.New("weird")}
	assert.Equal(t, "weird", err.Error())
}
