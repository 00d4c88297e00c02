package repository

import (
	"context"
	"sync"
	"time"

	"github.com/virtualvinyl/vinyl-server-go/internal/model"
)

type memoryEntry struct {
	mu         sync.Mutex
	session    *model.Session
	lastAccess time.Time
	deleted    bool
}

// MemorySessionRepository keeps sessions in process memory. Contents are
// lost on restart and sessions idle longer than ttl are treated as absent.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *MemorySessionRepository) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	now := r.now()
	session := &model.Session{
		ID:        params.ID,
		Provider:  params.Provider,
		State:     params.State,
		Selection: []model.Track{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[params.ID]; ok {
		existing.mu.Lock()
		live := !existing.deleted && !r.expired(existing, now)
		if !live {
			existing.deleted = true
		}
		existing.mu.Unlock()
		if live {
			return nil, ErrSessionExists
		}
	}
	r.entries[params.ID] = &memoryEntry{session: session, lastAccess: now}

	return session.Clone(), nil
}

func (r *MemorySessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	entry := r.entry(id)
	if entry == nil {
		return nil, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if entry.deleted || r.expired(entry, now) {
		return nil, nil
	}
	entry.lastAccess = now

	return entry.session.Clone(), nil
}

func (r *MemorySessionRepository) Update(ctx context.Context, id string, fn SessionMutator) (*model.Session, error) {
	entry := r.entry(id)
	if entry == nil {
		return nil, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if entry.deleted || r.expired(entry, now) {
		return nil, nil
	}

	draft := entry.session.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = entry.session.ID
	draft.UpdatedAt = now

	entry.session = draft
	entry.lastAccess = now

	return draft.Clone(), nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	entry, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		entry.mu.Lock()
		entry.deleted = true
		entry.mu.Unlock()
	}
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, entry := range r.entries {
		entry.mu.Lock()
		if r.expired(entry, now) {
			entry.deleted = true
			delete(r.entries, id)
			count++
		}
		entry.mu.Unlock()
	}
	return count, nil
}

// Len reports stored sessions, including ones not yet swept.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *MemorySessionRepository) entry(id string) *memoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

func (r *MemorySessionRepository) expired(entry *memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(entry.lastAccess) > r.ttl
}
