package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/costlab/internal/llm"
)

// Kind is the user-facing failure category of a workflow step.
type Kind string

const (
	KindConfiguration       Kind = "configuration_error"
	KindProviderTransient   Kind = "provider_transient_error"
	KindProviderFatal       Kind = "provider_fatal_error"
	KindPartialBatchFailure Kind = "partial_batch_failure"
	KindEmptyResult         Kind = "empty_result"
)

// Workflow steps, in execution order.
const (
	StepValidate  = "validate_config"
	StepGenerate  = "generate"
	StepOptimize  = "optimize"
	StepDryRun    = "dry_run"
	StepAggregate = "aggregate"
)

// Error stops a workflow run. Message and Hint are safe to show to users;
// the underlying cause is only exposed through Detail.
type Error struct {
	Kind    Kind
	Step    string
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Hint == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Hint)
}

func (e *Error) Unwrap() error { return e.Err }

// Detail returns Error() plus the raw cause when debug is set.
func (e *Error) Detail(debug bool) string {
	if !debug || e.Err == nil {
		return e.Error()
	}
	return e.Error() + ": " + e.Err.Error()
}

// KindOf returns the Kind of a workflow error, or "" for any other error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// Notice is a non-fatal event recorded on a run: a failed batch item or an
// empty result. Detail carries the raw cause and is only set in debug mode.
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func configError(problems []string) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Step:    StepValidate,
		Message: "Configuration error - unable to start optimization: " + strings.Join(problems, "; "),
		Hint:    "check your environment and ensure GCP_PROJECT_ID and the API key for AI_PROVIDER are set",
	}
}

// providerError maps a failed LLM call onto the workflow taxonomy.
func providerError(step, what string, err error) *Error {
	kind := llm.KindOf(err)

	e := &Error{Step: step, Message: llmMessage(what, kind), Hint: llmHint(kind), Err: err}
	if kind.Retryable() {
		e.Kind = KindProviderTransient
	} else {
		e.Kind = KindProviderFatal
	}
	return e
}

func llmMessage(what string, kind llm.Kind) string {
	if um := kind.UserMessage(); um != "" {
		return what + ": " + um
	}
	return what
}

func llmHint(kind llm.Kind) string {
	switch kind {
	case llm.KindRateLimit, llm.KindTimeout:
		return "this could be due to AI API rate limits or network issues; wait a moment and try again"
	case llm.KindAuthentication:
		return "verify your API key is valid and the provider is correctly configured"
	case llm.KindInvalidResponse:
		return "the AI returned an unexpected format; run the simulation again"
	default:
		return "try again; if the issue persists, check your configuration"
	}
}
