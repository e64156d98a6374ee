package user

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Intended for tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryStore creates an in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Create inserts a new user.
func (m *MemoryStore) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, exists := m.byEmail[email]; exists {
		return ErrEmailTaken
	}

	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[email] = u.ID
	return nil
}

// FindByID returns the user by id.
func (m *MemoryStore) FindByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, exists := m.byID[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByEmail returns the user by normalized email.
func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.byEmail[NormalizeEmail(email)]
	if !exists {
		return nil, ErrUserNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

// Update applies the non-nil profile fields.
func (m *MemoryStore) Update(ctx context.Context, id string, upd ProfileUpdate) error {
	if upd.IsEmpty() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, exists := m.byID[id]
	if !exists {
		return ErrUserNotFound
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.GivenName != nil {
		u.GivenName = *upd.GivenName
	}
	if upd.FamilyName != nil {
		u.FamilyName = *upd.FamilyName
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	u.UpdatedAt = time.Now()
	return nil
}

// SetBillingCustomerID records the billing provider's customer id.
func (m *MemoryStore) SetBillingCustomerID(ctx context.Context, id, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, exists := m.byID[id]
	if !exists {
		return ErrUserNotFound
	}
	u.BillingCustomerID = customerID
	u.UpdatedAt = time.Now()
	return nil
}

// Delete removes the user.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, exists := m.byID[id]
	if !exists {
		return ErrUserNotFound
	}
	delete(m.byEmail, NormalizeEmail(u.Email))
	delete(m.byID, id)
	return nil
}
