package auth

import (
	"os"
	"strings"
)

// EnvironmentStore implements a read-only CredentialStore backed by
// environment variables. It understands TRUTHSCRAPER_USERNAME,
// TRUTHSCRAPER_PASSWORD and TRUTHSCRAPER_TOKEN and exposes them as a
// single account.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment credentials
func (s *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. Any handle
// matches the environment account as long as the variables hold something
// usable; an explicit TRUTHSCRAPER_USERNAME wins as the handle.
func (s *EnvironmentStore) Retrieve(handle string) (*Account, error) {
	account := s.fromEnv()
	if account == nil {
		return nil, ErrCredentialsNotFound
	}
	if handle != "" && account.Handle != "" && !strings.EqualFold(handle, account.Handle) {
		return nil, ErrCredentialsNotFound
	}
	if handle != "" && account.Handle == "" {
		account.Handle = handle
	}
	return account, nil
}

// List returns the environment account if one is configured
func (s *EnvironmentStore) List() ([]*Account, error) {
	account := s.fromEnv()
	if account == nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment credentials
func (s *EnvironmentStore) Delete(handle string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are configured
func (s *EnvironmentStore) Exists(handle string) bool {
	_, err := s.Retrieve(handle)
	return err == nil
}

func (s *EnvironmentStore) fromEnv() *Account {
	account := &Account{
		Handle:   os.Getenv("TRUTHSCRAPER_USERNAME"),
		Username: os.Getenv("TRUTHSCRAPER_USERNAME"),
		Password: os.Getenv("TRUTHSCRAPER_PASSWORD"),
		Token:    os.Getenv("TRUTHSCRAPER_TOKEN"),
	}
	if !account.Usable() {
		return nil
	}
	return account
}
