package bq

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind categorizes a failed dry run for user messaging.
type ErrorKind string

const (
	ErrorSyntax     ErrorKind = "syntax"
	ErrorNotFound   ErrorKind = "not_found"
	ErrorPermission ErrorKind = "permission"
	ErrorQuota      ErrorKind = "quota"
	ErrorUnknown    ErrorKind = "unknown"
)

// ClassifyError inspects the googleapi error reason and status first, then
// falls back to the message text.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorUnknown
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		for _, item := range ge.Errors {
			switch item.Reason {
			case "invalidQuery":
				return ErrorSyntax
			case "notFound":
				return ErrorNotFound
			case "accessDenied":
				return ErrorPermission
			case "quotaExceeded", "rateLimitExceeded":
				return ErrorQuota
			}
		}
		switch ge.Code {
		case http.StatusNotFound:
			return ErrorNotFound
		case http.StatusForbidden, http.StatusUnauthorized:
			return ErrorPermission
		case http.StatusTooManyRequests:
			return ErrorQuota
		}
	}

	return ClassifyText(err.Error())
}

// ClassifyText categorizes a failure from its message alone. Used when only
// the error text of a dry run survives, as in a cached or relayed result.
func ClassifyText(text string) ErrorKind {
	msg := strings.ToLower(text)
	switch {
	case strings.Contains(msg, "syntax"):
		return ErrorSyntax
	case strings.Contains(msg, "not found"):
		return ErrorNotFound
	case strings.Contains(msg, "permission"):
		return ErrorPermission
	case strings.Contains(msg, "quota"):
		return ErrorQuota
	default:
		return ErrorUnknown
	}
}

// UserMessage returns the explanation shown for a failed dry run. It never
// includes the raw provider error.
func (k ErrorKind) UserMessage() string {
	switch k {
	case ErrorSyntax:
		return "Invalid SQL syntax. Please check your query for errors."
	case ErrorNotFound:
		return "Table or dataset not found. Please verify the dataset and table names."
	case ErrorPermission:
		return "Insufficient permissions to access this resource. Please check your credentials."
	case ErrorQuota:
		return "BigQuery quota exceeded. Please try again later or increase your quota."
	default:
		return "BigQuery could not estimate this query."
	}
}

// Hint suggests what the user can do about a failed dry run.
func (k ErrorKind) Hint() string {
	switch k {
	case ErrorSyntax:
		return "the AI rewrite may be invalid SQL; run the simulation again"
	case ErrorNotFound:
		return "pick a dataset from the catalogue or check that the table is public"
	case ErrorPermission:
		return "check GOOGLE_APPLICATION_CREDENTIALS and that the service account can run BigQuery jobs"
	case ErrorQuota:
		return "wait a few minutes or run fewer queries"
	default:
		return "try again; enable debug mode to see the BigQuery error"
	}
}
