// internal/domain/configurator/store.go
package configurator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/eyewear-backend/internal/domain/wizard"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// Snapshot is the persisted form of a wizard session. The catalog is not stored;
// it is resolved again when the session is resumed.
type Snapshot struct {
	ID        string       `json:"id"`
	ProductID uint         `json:"product_id"`
	State     wizard.State `json:"state"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store persists open wizard sessions
type Store interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis, each key expiring after the session TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Save(ctx context.Context, snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(snapshot.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save wizard session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load wizard session: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wizard session: %w", err)
	}
	return &snapshot, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return fmt.Sprintf("wizard:session:%s", id)
}

// MemoryStore keeps sessions in process. The API server uses RedisStore, this one
// backs tests.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: map[string]Snapshot{}}
}

func (m *MemoryStore) Save(_ context.Context, snapshot *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.ID] = Snapshot{
		ID:        snapshot.ID,
		ProductID: snapshot.ProductID,
		State:     snapshot.State.Clone(),
		UpdatedAt: snapshot.UpdatedAt,
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.snapshots[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	snapshot.State = snapshot.State.Clone()
	return &snapshot, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}
