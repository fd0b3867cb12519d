package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
)

func sampleResult(id string) *Result {
	return &Result{
		BatchID:   id,
		CSV:       []byte("Outlet_Identifier,Item_Identifier,Item_Outlet_Sales\nOUT049,FDA01,100.00\n"),
		Rows:      1,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Memory
// ==========================

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("b1")))

	got, err := s.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, sampleResult("b1"), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("b1")))

	now = now.Add(2 * time.Minute)
	_, err := s.Get(ctx, "b1")
	assert.True(t, errors.Is(err, apperrors.ErrResultNotFound))

	// expired entries are swept on the next save
	require.NoError(t, s.Save(ctx, sampleResult("b2")))
	assert.Len(t, s.entries, 1)
}

func TestMemoryStore_UnknownID(t *testing.T) {
	_, err := NewMemoryStore(time.Hour).Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, apperrors.ErrResultNotFound))
}

// ==========================
// Redis
// ==========================

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "forecast:batch:", 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("b1")))
	assert.True(t, mr.Exists("forecast:batch:b1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("forecast:batch:b1"))

	got, err := s.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, sampleResult("b1").CSV, got.CSV)
	assert.Equal(t, 1, got.Rows)

	mr.FastForward(11 * time.Minute)
	_, err = s.Get(ctx, "b1")
	assert.True(t, errors.Is(err, apperrors.ErrResultNotFound))
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client, "p:", time.Minute)
	ctx := context.Background()

	data, err := json.Marshal(sampleResult("b1"))
	require.NoError(t, err)

	mock.ExpectSet("p:b1", data, time.Minute).SetErr(errors.New("connection refused"))
	err = s.Save(ctx, sampleResult("b1"))
	assert.True(t, errors.Is(err, apperrors.ErrResultStore))

	mock.ExpectGet("p:b2").SetErr(errors.New("connection refused"))
	_, err = s.Get(ctx, "b2")
	assert.True(t, errors.Is(err, apperrors.ErrResultStore))

	mock.ExpectGet("p:b3").SetVal("not json")
	_, err = s.Get(ctx, "b3")
	assert.True(t, errors.Is(err, apperrors.ErrResultStore))

	mock.ExpectGet("p:b4").RedisNil()
	_, err = s.Get(ctx, "b4")
	assert.True(t, errors.Is(err, apperrors.ErrResultNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(config.StoreConfig{Backend: config.StoreBackendMemory}, time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, config.StoreBackendMemory, s.Backend())

	_, err = New(config.StoreConfig{Backend: config.StoreBackendRedis}, time.Minute, nil)
	assert.Error(t, err)

	client, _ := redismock.NewClientMock()
	s, err = New(config.StoreConfig{Backend: config.StoreBackendRedis, KeyPrefix: "x:"}, time.Minute, client)
	require.NoError(t, err)
	assert.Equal(t, config.StoreBackendRedis, s.Backend())

	_, err = New(config.StoreConfig{Backend: "s3"}, time.Minute, nil)
	assert.Error(t, err)
}
