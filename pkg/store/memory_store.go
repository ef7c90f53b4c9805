package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

// MemoryStore keeps users and transformations in-process. It mirrors the
// GormStore contract, including ErrDuplicateUser on unique violations, so it
// can stand in for Postgres in tests.
type MemoryStore struct {
	mu              sync.RWMutex
	users           map[string]domain.User // key: user ID
	byUsername      map[string]string      // username -> user ID
	byEmail         map[string]string      // email -> user ID
	transformations []domain.Transformation
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byUsername[u.Username]; ok && id != u.ID {
		return ErrDuplicateUser
	}
	if id, ok := m.byEmail[u.Email]; ok && id != u.ID {
		return ErrDuplicateUser
	}
	if prev, ok := m.users[u.ID]; ok {
		delete(m.byUsername, prev.Username)
		delete(m.byEmail, prev.Email)
	}
	m.users[u.ID] = u
	m.byUsername[u.Username] = u.ID
	m.byEmail[u.Email] = u.ID
	return nil
}

// HasUsername checks if username exists.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUsername[username]
	return ok, nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byUsername[username]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users ordered by creation time.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// SaveTransformation appends a transformation.
func (m *MemoryStore) SaveTransformation(t domain.Transformation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transformations = append(m.transformations, t)
	return nil
}

// ListTransformationsByUser returns the user's transformations, newest first.
func (m *MemoryStore) ListTransformationsByUser(userID string) ([]domain.Transformation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Transformation, 0)
	for _, t := range m.transformations {
		if t.UserID == userID {
			res = append(res, t)
		}
	}
	sortNewestFirst(res)
	return res, nil
}

// ListTransformations returns all transformations, newest first.
func (m *MemoryStore) ListTransformations() ([]domain.Transformation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Transformation, len(m.transformations))
	copy(res, m.transformations)
	sortNewestFirst(res)
	return res, nil
}

func sortNewestFirst(items []domain.Transformation) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// MemorySessionStore keeps session tokens in-process.
type MemorySessionStore struct {
	mu   sync.RWMutex
	sess map[string]string // token -> user ID
}

// NewMemorySessionStore initializes an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sess: make(map[string]string)}
}

// NewSession creates a session token for a user.
func (m *MemorySessionStore) NewSession(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.sess[token] = userID
	return token, nil
}

// GetUserIDByToken resolves token to user ID.
func (m *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uid, ok := m.sess[token]
	return uid, ok, nil
}

// DeleteSession removes a token mapping.
func (m *MemorySessionStore) DeleteSession(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sess, token)
	return nil
}
