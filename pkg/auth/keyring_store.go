package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "truthscraper"
	keyringPrefix  = "truthsocial_"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Probe availability; headless systems often have no keyring daemon.
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	key := keyringPrefix + account.Handle
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(handle string) (*Account, error) {
	if handle == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+handle)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// List returns stored accounts. The underlying keyring APIs cannot
// enumerate keys portably, so the keyring store always lists empty and the
// encrypted file store provides listing.
func (k *KeyringStore) List() ([]*Account, error) {
	return []*Account{}, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(handle string) error {
	if handle == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+handle); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return nil
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(handle string) bool {
	account, err := k.Retrieve(handle)
	return err == nil && account != nil
}
