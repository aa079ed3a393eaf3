package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/costlab/internal/cache"
	"github.com/kiranshivaraju/costlab/internal/session"
	"github.com/kiranshivaraju/costlab/internal/workflow"
	"github.com/kiranshivaraju/costlab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct{ cache.Cache }

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis: connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis: connection refused")
}

func TestStore_CreateLoad(t *testing.T) {
	s := session.NewStore(cache.NewMemoryCache(), time.Hour)

	id, err := s.Create(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	st, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, st.SQL)
	assert.Nil(t, st.Storage)
}

func TestStore_SaveRoundtrip(t *testing.T) {
	s := session.NewStore(cache.NewMemoryCache(), time.Hour)
	id, err := s.Create(context.Background())
	require.NoError(t, err)

	want := workflow.State{
		Storage: &workflow.StorageState{
			Run:     models.Run{Domain: models.DomainStorage, Status: models.RunStatusCompleted},
			Buckets: []models.Bucket{{Name: "prod-data-1234", SizeGB: 12.5, StorageClass: "STANDARD"}},
			Results: []models.StorageOptimizationResult{{BucketName: "prod-data-1234", EstimatedSavingsUSD: 0.1, ActionType: "move"}},
		},
	}
	require.NoError(t, s.Save(context.Background(), id, want))

	got, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, got.Storage)
	assert.Equal(t, want.Storage.Buckets[0].Name, got.Storage.Buckets[0].Name)
	assert.Equal(t, want.Storage.Results, got.Storage.Results)
	assert.Nil(t, got.ML)
}

func TestStore_NotFound(t *testing.T) {
	s := session.NewStore(cache.NewMemoryCache(), time.Hour)
	_, err := s.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_Expires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := cache.NewMemoryCache().WithClock(func() time.Time { return now })
	s := session.NewStore(mc, 30*time.Minute)

	id, err := s.Create(context.Background())
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = s.Load(context.Background(), id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	s := session.NewStore(cache.NewMemoryCache(), time.Hour)
	id, err := s.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), id))
	_, err = s.Load(context.Background(), id)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_CacheErrors(t *testing.T) {
	s := session.NewStore(brokenCache{}, time.Hour)

	_, err := s.Create(context.Background())
	assert.ErrorContains(t, err, "connection refused")

	_, err = s.Load(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, session.ErrNotFound)
}
