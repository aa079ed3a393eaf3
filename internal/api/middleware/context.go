package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/costlab/internal/api/response"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

func SetSessionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func GetSessionID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(sessionIDKey).(uuid.UUID)
	return id, ok
}

// SessionID parses the {id} URL parameter and stores it in the request
// context. Malformed IDs are rejected before reaching the handler.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_SESSION_ID", "Session ID must be a UUID", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetSessionID(r.Context(), id)))
	})
}
