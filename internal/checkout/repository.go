package checkout

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/events"
)

// Repository persists checkout sessions and the outbox of events they emit.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
	FindByIdempotencyKey(ctx context.Context, key string) (*Session, error)
	// Complete saves s and enqueues event atomically.
	Complete(ctx context.Context, s *Session, event events.OutboxEvent) error

	events.Outbox
	Close() error
}

// MemoryRepository keeps sessions in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	outbox    []events.OutboxEvent
	published map[int64]time.Time
	nextID    int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions:  make(map[string]*Session),
		published: make(map[int64]time.Time),
	}
}

func clone(s *Session) *Session {
	c := *s
	if s.Failure != nil {
		f := *s.Failure
		f.Remedies = append([]string(nil), s.Failure.Remedies...)
		c.Failure = &f
	}
	if s.Placed != nil {
		p := *s.Placed
		c.Placed = &p
	}
	return &c
}

func (m *MemoryRepository) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return clone(s), nil
}

func (m *MemoryRepository) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.SessionID] = clone(s)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryRepository) FindByIdempotencyKey(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sessions {
		if key != "" && s.IdempotencyKey == key {
			return clone(s), nil
		}
	}
	return nil, ErrIdempotencyKeyNotFound
}

func (m *MemoryRepository) Complete(_ context.Context, s *Session, event events.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.SessionID] = clone(s)
	m.nextID++
	event.ID = m.nextID
	m.outbox = append(m.outbox, event)
	return nil
}

func (m *MemoryRepository) PendingEvents(_ context.Context, limit int) ([]events.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []events.OutboxEvent
	for _, e := range m.outbox {
		if _, done := m.published[e.ID]; done {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) MarkEventPublished(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[id] = time.Now()
	return nil
}

func (m *MemoryRepository) Close() error { return nil }
