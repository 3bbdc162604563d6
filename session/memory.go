package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is a process-local Backend. Every operation runs under one
// mutex, which makes each of them linearizable.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	byUser  map[string]map[string]struct{}

	reaperOnce sync.Once
	closeOnce  sync.Once
	stop       chan struct{}
	done       chan struct{}
}

// NewMemoryStore returns an empty MemoryStore. Expired records are removed on
// lookup; call StartReaper to also sweep records nobody asks about.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		byUser:  make(map[string]map[string]struct{}),
		stop:    make(chan struct{}),
	}
}

// Create stores a copy of rec unless its key is taken. ttl is advisory here;
// rec.ExpiresAt is authoritative.
func (m *MemoryStore) Create(ctx context.Context, rec *Record, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !validKey(rec.Key) {
		return false, ErrInvalidKey
	}
	if len(rec.UserID) == 0 || len(rec.UserID) > maxUserIDLen {
		return false, ErrInvalidUserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.Key]; exists {
		return false, nil
	}

	cp := *rec
	m.records[rec.Key] = &cp

	keys, ok := m.byUser[rec.UserID]
	if !ok {
		keys = make(map[string]struct{})
		m.byUser[rec.UserID] = keys
	}
	keys[rec.Key] = struct{}{}

	return true, nil
}

// Get returns a copy of the record under key, deleting it first if it has
// expired at now.
func (m *MemoryStore) Get(ctx context.Context, key string, now time.Time) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.Expired(now) {
		m.deleteLocked(rec)
		return nil, ErrNotFound
	}

	cp := *rec
	return &cp, nil
}

// Revoke flips the revoked flag of a live record.
func (m *MemoryStore) Revoke(ctx context.Context, key string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return ErrNotFound
	}
	if rec.Expired(now) {
		m.deleteLocked(rec)
		return ErrNotFound
	}
	if rec.Revoked {
		return ErrNotFound
	}

	rec.Revoked = true
	return nil
}

// ListForUser returns copies of the user's unexpired records, oldest first.
func (m *MemoryStore) ListForUser(ctx context.Context, userID string, now time.Time) ([]*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.byUser[userID]
	records := make([]*Record, 0, len(keys))
	for key := range keys {
		rec := m.records[key]
		if rec.Expired(now) {
			m.deleteLocked(rec)
			continue
		}
		cp := *rec
		records = append(records, &cp)
	}

	sortRecords(records)
	return records, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) (time.Duration, error) {
	return 0, ctx.Err()
}

// Len returns the number of stored records, expired ones not yet reaped included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Reap deletes every record expired at now and returns how many it removed.
func (m *MemoryStore) Reap(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, rec := range m.records {
		if rec.Expired(now) {
			m.deleteLocked(rec)
			n++
		}
	}
	return n
}

// StartReaper runs Reap every interval until Close. clock may be nil, in
// which case time.Now is used. Only the first call starts a goroutine.
func (m *MemoryStore) StartReaper(interval time.Duration, clock func() time.Time) error {
	if interval <= 0 {
		return errors.New("reaper interval must be > 0")
	}
	if clock == nil {
		clock = time.Now
	}

	m.reaperOnce.Do(func() {
		m.done = make(chan struct{})
		go func() {
			defer close(m.done)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-m.stop:
					return
				case <-ticker.C:
					m.Reap(clock())
				}
			}
		}()
	})
	return nil
}

// Close stops the reaper, if running, and waits for it to exit.
func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
	})

	// reaperOnce also guards m.done against a concurrent StartReaper.
	m.reaperOnce.Do(func() {})
	if m.done != nil {
		<-m.done
	}
	return nil
}

func (m *MemoryStore) deleteLocked(rec *Record) {
	delete(m.records, rec.Key)
	if keys, ok := m.byUser[rec.UserID]; ok {
		delete(keys, rec.Key)
		if len(keys) == 0 {
			delete(m.byUser, rec.UserID)
		}
	}
}
