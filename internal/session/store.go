// Package session keeps per-session workflow state in the cache. State
// expires after the configured TTL and is never written anywhere else.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/kiranshivaraju/costlab/internal/workflow"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store persists workflow.State keyed by session ID.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// Create starts a session with empty state.
func (s *Store) Create(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	if err := s.Save(ctx, id, workflow.State{}); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Load returns the state for id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (workflow.State, error) {
	data, found, err := s.cache.Get(ctx, cache.SessionKey(id.String()))
	if err != nil {
		return workflow.State{}, fmt.Errorf("loading session %s: %w", id, err)
	}
	if !found {
		return workflow.State{}, ErrNotFound
	}

	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return workflow.State{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return st, nil
}

// Save replaces the state for id and refreshes its TTL.
func (s *Store) Save(ctx context.Context, id uuid.UUID, st workflow.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	if err := s.cache.Set(ctx, cache.SessionKey(id.String()), data, s.ttl); err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.cache.Delete(ctx, cache.SessionKey(id.String()))
}
