package auth

import (
	"context"
	"strings"
	"sync"

	"marksportal/backend/internal/shared"
)

// MemoryUserStore is an in-process UserStore used by tests and by the auth
// service when STORE_BACKEND=memory.
type MemoryUserStore struct {
	mu       sync.RWMutex
	users    map[string]shared.User
	sessions map[string]shared.Session // keyed by session ID
}

var _ UserStore = (*MemoryUserStore)(nil)

func NewMemoryUserStore(users ...shared.User) *MemoryUserStore {
	m := &MemoryUserStore{
		users:    make(map[string]shared.User),
		sessions: make(map[string]shared.Session),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

// PutUser stores or replaces a user.
func (m *MemoryUserStore) PutUser(u shared.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryUserStore) FindUserByIdentifier(ctx context.Context, identifier string) (shared.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, identifier) || (u.RollNo != "" && strings.EqualFold(u.RollNo, identifier)) {
			return u, nil
		}
	}
	return shared.User{}, ErrUserNotFound
}

func (m *MemoryUserStore) FindUserByID(ctx context.Context, id string) (shared.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return shared.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryUserStore) CreateSession(ctx context.Context, session shared.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MemoryUserStore) DeleteSessionsByToken(ctx context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Token == token {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryUserStore) SessionExists(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.Token == token && !s.IsExpired() {
			return true, nil
		}
	}
	return false, nil
}
