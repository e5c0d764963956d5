package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryLockStore) DelIfEquals(_ context.Context, key, expected string) (bool, error) {
	if v, ok := m.data[key]; !ok || v != expected {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryLockStore) LockKey(name string) string { return "pos:lock:" + name }

func TestRedisLockExclusive(t *testing.T) {
	store := newMemoryLockStore()
	ctx := context.Background()
	first, err := NewRedisLock(store, "cron-worker:test", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "cron-worker:test", 0)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttls["pos:lock:cron-worker:test"])

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// a non-owner release leaves the lock in place
	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.data, "pos:lock:cron-worker:test")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.data, "pos:lock:cron-worker:test")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseSkipsForeignOwner(t *testing.T) {
	store := newMemoryLockStore()
	ctx := context.Background()
	lock, err := NewRedisLock(store, "w", time.Minute)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// lock expired and another worker took it
	store.data["pos:lock:w"] = "someone-else"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.data["pos:lock:w"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "x", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "", 0)
	assert.Error(t, err)
}

func TestReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newMemoryLockStore()
	store.data["pos:lock:w"] = "other"
	lock, err := NewRedisLock(store, "w", time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "other", store.data["pos:lock:w"])
}
