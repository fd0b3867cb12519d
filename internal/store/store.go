// Package store keeps encoded batch results so they can be downloaded after the
// prediction request has returned.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/metrics"
)

// Result is one stored batch download.
type Result struct {
	BatchID   string    `json:"batchId"`
	CSV       []byte    `json:"csv"`
	Rows      int       `json:"rows"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"createdAt"`
}

type ResultStore interface {
	Save(ctx context.Context, r *Result) error
	// Get returns a RESULT_NOT_FOUND error once the entry expired.
	Get(ctx context.Context, batchID string) (*Result, error)
	Backend() string
}

// New picks the backend named in cfg. rdb may be nil for the memory backend.
func New(cfg config.StoreConfig, ttl time.Duration, rdb *redis.Client) (ResultStore, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		return NewRedisStore(rdb, cfg.KeyPrefix, ttl), nil
	case config.StoreBackendMemory, "":
		return NewMemoryStore(ttl), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// ==========================
// Memory
// ==========================

type entry struct {
	result  Result
	expires time.Time
}

type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]entry)}
}

func (s *MemoryStore) Save(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
	cp := *r
	cp.CSV = append([]byte(nil), r.CSV...)
	s.entries[r.BatchID] = entry{result: cp, expires: now.Add(s.ttl)}
	metrics.BatchResultsStored.WithLabelValues(s.Backend(), "success").Inc()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, batchID string) (*Result, error) {
	s.mu.RLock()
	e, ok := s.entries[batchID]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expires) {
		return nil, apperrors.NewResultNotFoundError(batchID)
	}
	cp := e.result
	return &cp, nil
}

func (s *MemoryStore) Backend() string {
	return config.StoreBackendMemory
}

// ==========================
// Redis
// ==========================

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(batchID string) string {
	return s.prefix + batchID
}

func (s *RedisStore) Save(ctx context.Context, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return apperrors.NewResultStoreError(err)
	}
	if err := s.client.Set(ctx, s.key(r.BatchID), data, s.ttl).Err(); err != nil {
		metrics.BatchResultsStored.WithLabelValues(s.Backend(), "failed").Inc()
		return apperrors.NewResultStoreError(err)
	}
	metrics.BatchResultsStored.WithLabelValues(s.Backend(), "success").Inc()
	return nil
}

func (s *RedisStore) Get(ctx context.Context, batchID string) (*Result, error) {
	val, err := s.client.Get(ctx, s.key(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewResultNotFoundError(batchID)
	}
	if err != nil {
		return nil, apperrors.NewResultStoreError(err)
	}

	var r Result
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, apperrors.NewResultStoreError(fmt.Errorf("decode stored result: %w", err))
	}
	return &r, nil
}

func (s *RedisStore) Backend() string {
	return config.StoreBackendRedis
}
