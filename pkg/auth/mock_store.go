package auth

import "sync"

// MockStore is an in-memory CredentialStore for testing
type MockStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account

	// Failures lets tests simulate an unavailable backend.
	FailStore    bool
	FailRetrieve bool
}

// NewMockStore creates a new in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{
		accounts: make(map[string]*Account),
	}
}

// Store saves credentials in memory
func (m *MockStore) Store(account *Account) error {
	if m.FailStore {
		return ErrStoreUnavailable
	}
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Handle] = account
	return nil
}

// Retrieve gets credentials from memory
func (m *MockStore) Retrieve(handle string) (*Account, error) {
	if m.FailRetrieve {
		return nil, ErrStoreUnavailable
	}
	if handle == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[handle]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns all stored accounts
func (m *MockStore) List() ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		result = append(result, account)
	}
	return result, nil
}

// Delete removes credentials from memory
func (m *MockStore) Delete(handle string) error {
	if handle == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[handle]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, handle)
	return nil
}

// Exists checks if credentials exist in memory
func (m *MockStore) Exists(handle string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[handle]
	return ok
}
