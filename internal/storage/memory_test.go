package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemory(t *testing.T) *MemoryStore {
	s := NewMemoryStore(time.Hour)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	s := setupMemory(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSnapshotMiss)

	require.NoError(t, s.Save(ctx, "a", []byte("one")))
	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSnapshotMiss)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	s := setupMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", []byte("one")))

	got, _ := s.Load(ctx, "a")
	got[0] = 'X'

	again, _ := s.Load(ctx, "a")
	assert.Equal(t, "one", string(again))
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := setupMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", []byte("one")))

	s.mu.Lock()
	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.mu.Unlock()

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSnapshotMiss)

	s.expire()
	s.mu.RLock()
	assert.Empty(t, s.entries)
	s.mu.RUnlock()
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := setupMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i%5)
			_ = s.Save(ctx, id, []byte("x"))
			_, _ = s.Load(ctx, id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		_, err := s.Load(ctx, fmt.Sprintf("s-%d", i))
		assert.NoError(t, err)
	}
}
