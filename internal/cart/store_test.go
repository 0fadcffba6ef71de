package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/storage"
)

// failingStore lets tests inject storage errors.
type failingStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newFailingStore() *failingStore {
	return &failingStore{data: make(map[string][]byte)}
}

func (f *failingStore) Load(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	d, ok := f.data[id]
	if !ok {
		return nil, storage.ErrSnapshotMiss
	}
	return d, nil
}

func (f *failingStore) Save(_ context.Context, id string, b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.data[id] = b
	return nil
}

func (f *failingStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func item(variant string) domain.CartItem {
	return domain.CartItem{
		ProductID: "p1",
		VariantID: variant,
		Name:      "Vestido",
		UnitPrice: decimal.NewFromInt(20),
		Quantity:  1,
	}
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	mem := storage.NewMemoryStore(time.Hour)
	t.Cleanup(func() { mem.Close() })
	return NewStore(mem, zap.NewNop()), mem
}

func TestStore_GetEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	c, err := s.Get(context.Background(), "sess")

	require.NoError(t, err)
	assert.Equal(t, "sess", c.SessionID)
	assert.True(t, c.IsEmpty())
}

func TestStore_AddPersists(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "sess", item("M"))
	require.NoError(t, err)
	_, err = s.Add(ctx, "sess", item("M"))
	require.NoError(t, err)

	raw, err := mem.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"p1:M"`)

	// a fresh store over the same snapshots sees the persisted cart
	c, err := NewStore(mem, zap.NewNop()).Get(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestStore_AddRejectsMissingProduct(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Add(context.Background(), "sess", domain.CartItem{Quantity: 1})

	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestStore_UpdateQuantity(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "sess", item("M"))
	require.NoError(t, err)

	c, err := s.UpdateQuantity(ctx, "sess", "p1:M", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c, err = s.UpdateQuantity(ctx, "sess", "p1:M", 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = s.UpdateQuantity(ctx, "sess", "p1:M", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestStore_RemoveAndClear(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Add(ctx, "sess", item("M"))
	_, _ = s.Add(ctx, "sess", item("L"))

	c, err := s.Remove(ctx, "sess", "p1:M")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1:L"}, c.ItemIDs())

	require.NoError(t, s.Clear(ctx, "sess"))
	_, err = mem.Load(ctx, "sess")
	assert.ErrorIs(t, err, storage.ErrSnapshotMiss)
}

func TestStore_UnreadableSnapshotYieldsEmptyCart(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Save(ctx, "sess", []byte("{not json")))

	c, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c, err = s.Add(ctx, "sess", item("M"))
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestStore_StorageErrors(t *testing.T) {
	fs := newFailingStore()
	s := NewStore(fs, zap.NewNop())
	ctx := context.Background()

	fs.saveErr = errors.New("disk full")
	_, err := s.Add(ctx, "sess", item("M"))
	assert.ErrorContains(t, err, "disk full")

	fs.saveErr = nil
	fs.loadErr = errors.New("connection refused")
	_, err = s.Get(ctx, "sess")
	assert.ErrorContains(t, err, "connection refused")
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	fs := newFailingStore()
	s := NewStore(fs, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(ctx, "sess", item("M"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 20, c.Items[0].Quantity)
	assert.Equal(t, 20, fs.saves)
	assert.Zero(t, s.locks.Len())
}

func TestStore_ClearPlaced(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	placed := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return placed.Add(-time.Minute) }
	_, err := s.Add(ctx, "sess-1", item("v1"))
	require.NoError(t, err)

	cleared, err := s.ClearPlaced(ctx, "sess-1", placed)
	require.NoError(t, err)
	assert.True(t, cleared)

	c, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestStore_ClearPlacedKeepsNewerCart(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	placed := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return placed.Add(time.Minute) }
	_, err := s.Add(ctx, "sess-1", item("v1"))
	require.NoError(t, err)

	cleared, err := s.ClearPlaced(ctx, "sess-1", placed)
	require.NoError(t, err)
	assert.False(t, cleared)

	c, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func TestStore_ClearPlacedMissingCart(t *testing.T) {
	s, _ := newTestStore(t)

	cleared, err := s.ClearPlaced(context.Background(), "nobody", time.Now())
	require.NoError(t, err)
	assert.False(t, cleared)
}
