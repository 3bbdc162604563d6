package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory. The uniqueness check and the
// insert happen under one write lock.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byIdentity map[string]string
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*User),
		byIdentity: make(map[string]string),
		now:        time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, in CreateInput) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byIdentity[in.Identity]; exists {
		return nil, ErrDuplicateIdentity
	}

	u := &User{
		ID:           uuid.NewString(),
		Identity:     in.Identity,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    m.now().UTC(),
	}
	m.byID[u.ID] = u
	m.byIdentity[u.Identity] = u.ID

	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindByIdentity(ctx context.Context, identity string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byIdentity[NormalizeIdentity(identity)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdatePasswordHash replaces the stored hash of user id.
func (m *MemoryStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if passwordHash == "" {
		return ErrEmptyPasswordHash
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}
