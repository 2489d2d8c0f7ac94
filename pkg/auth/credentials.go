package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Account represents one Truth Social account's credentials. Either Token,
// or Username and Password together, must be present for the account to be
// usable; storing both is allowed and the token wins at login time.
type Account struct {
	Handle       string    `json:"handle"`
	Username     string    `json:"username,omitempty"`
	Password     string    `json:"password,omitempty"`
	Token        string    `json:"token,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Usable reports whether the account satisfies the credential invariant.
func (a *Account) Usable() bool {
	if a == nil {
		return false
	}
	return a.Token != "" || (a.Username != "" && a.Password != "")
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific handle
	Retrieve(handle string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific handle
	Delete(handle string) error

	// Exists checks if credentials exist for a handle
	Exists(handle string) bool
}

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with appropriate storage
// backends: system keyring first, encrypted file next, environment last.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores, mainly for
// tests.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}
	if !account.Usable() {
		return ErrInvalidCredentials
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(handle string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(handle); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for %s", handle)
}

// RetrieveDefault gets credentials for the environment account or the first
// stored one.
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil && account != nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, errors.New("no credentials found")
}

// List returns all stored accounts from all stores
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := accountMap[account.Handle]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Handle] = account
			}
		}
	}

	var result []*Account
	for _, account := range accountMap {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(handle string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(handle); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for %s", handle)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "truthscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "truthscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "truthscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "truthscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}
