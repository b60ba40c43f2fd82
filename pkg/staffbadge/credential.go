package staffbadge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

// Credential is the stored half of a quick-login token. The secret itself
// is never kept, only its bcrypt hash.
type Credential struct {
	ID          uuid.UUID `json:"id"`
	StaffID     string    `json:"staff_id"`
	PrincipalID string    `json:"principal_id"`
	Role        rbac.Role `json:"role"`
	Hash        []byte    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the credential is past its expiry.
// A zero ExpiresAt never expires.
func (c Credential) ExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Store persists credentials.
type Store interface {
	SaveCredential(ctx context.Context, c Credential) error
	Credential(ctx context.Context, id uuid.UUID) (Credential, error)
	DeleteCredential(ctx context.Context, id uuid.UUID) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[uuid.UUID]Credential
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[uuid.UUID]Credential)}
}

func (m *MemoryStore) SaveCredential(_ context.Context, c Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[c.ID] = c
	return nil
}

func (m *MemoryStore) Credential(_ context.Context, id uuid.UUID) (Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[id]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return c, nil
}

func (m *MemoryStore) DeleteCredential(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[id]; !ok {
		return ErrCredentialNotFound
	}
	delete(m.creds, id)
	return nil
}
