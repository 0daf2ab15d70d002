package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type cachedOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestJSONRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	key := Key("orders", "a1")
	assert.Equal(t, "orders:a1", key)

	_, err := GetJSON[cachedOrder](ctx, store, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, SetJSON(ctx, store, key, cachedOrder{ID: "a1", Status: "open"}, time.Minute))
	got, err := GetJSON[cachedOrder](ctx, store, key)
	require.NoError(t, err)
	assert.Equal(t, "open", got.Status)

	require.NoError(t, store.Set(ctx, key, []byte("{not json"), 0))
	_, err = GetJSON[cachedOrder](ctx, store, key)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNoopStoreAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	s := Noop()
	require.NoError(t, SetJSON(ctx, s, "k", cachedOrder{ID: "x"}, 0))
	_, err := GetJSON[cachedOrder](ctx, s, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, s.Delete(ctx, "k"))

	_, err = GetJSON[cachedOrder](ctx, nil, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
