package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore implements CredentialStore using AES-GCM encrypted files
type EncryptedFileStore struct {
	filePath   string
	passphrase []byte
	mu         sync.RWMutex
}

type encryptedData struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// NewEncryptedFileStore creates an encrypted credential store backed by the
// given file. The encryption passphrase comes from TRUTHSCRAPER_PASSPHRASE or
// a generated .passphrase file next to the store.
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	passphrase, err := getPassphrase(filepath.Dir(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{
		filePath:   filePath,
		passphrase: passphrase,
	}, nil
}

// getPassphrase gets the encryption passphrase from environment or generates one
func getPassphrase(dir string) ([]byte, error) {
	if pass := os.Getenv("TRUTHSCRAPER_PASSPHRASE"); pass != "" {
		return []byte(pass), nil
	}

	passphraseFile := filepath.Join(dir, ".passphrase")
	if data, err := os.ReadFile(passphraseFile); err == nil {
		return data, nil
	}

	passphrase := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, passphrase); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}

	if err := os.WriteFile(passphraseFile, passphrase, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}

	return passphrase, nil
}

// Store saves credentials to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Handle == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.loadAccounts()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if accounts == nil {
		accounts = make(map[string]*Account)
	}

	accounts[account.Handle] = account
	return e.saveAccounts(accounts)
}

// Retrieve gets credentials from the encrypted file
func (e *EncryptedFileStore) Retrieve(handle string) (*Account, error) {
	if handle == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	account, ok := accounts[handle]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	return account, nil
}

// List returns all stored accounts
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Account{}, nil
		}
		return nil, err
	}

	result := make([]*Account, 0, len(accounts))
	for _, account := range accounts {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from the encrypted file
func (e *EncryptedFileStore) Delete(handle string) error {
	if handle == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.loadAccounts()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return err
	}

	if _, ok := accounts[handle]; !ok {
		return ErrCredentialsNotFound
	}

	delete(accounts, handle)
	return e.saveAccounts(accounts)
}

// Exists checks if credentials exist in the encrypted file
func (e *EncryptedFileStore) Exists(handle string) bool {
	account, err := e.Retrieve(handle)
	return err == nil && account != nil
}

// loadAccounts loads and decrypts all accounts from the file
func (e *EncryptedFileStore) loadAccounts() (map[string]*Account, error) {
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return nil, err
	}

	var encData encryptedData
	if err := json.Unmarshal(data, &encData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encrypted data: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(encData.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encData.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	plaintext, err := e.decrypt(ciphertext, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	var accounts map[string]*Account
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}

	return accounts, nil
}

// saveAccounts encrypts and saves all accounts to the file
func (e *EncryptedFileStore) saveAccounts(accounts map[string]*Account) error {
	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	ciphertext, err := e.encrypt(plaintext, salt)
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	encData := encryptedData{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Data: base64.StdEncoding.EncodeToString(ciphertext),
	}

	data, err := json.MarshalIndent(encData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	tmpFile := e.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, e.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// encrypt encrypts plaintext using AES-GCM with a key derived from the passphrase
func (e *EncryptedFileStore) encrypt(plaintext, salt []byte) ([]byte, error) {
	key := pbkdf2.Key(e.passphrase, salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt decrypts ciphertext using AES-GCM with a key derived from the passphrase
func (e *EncryptedFileStore) decrypt(ciphertext, salt []byte) ([]byte, error) {
	key := pbkdf2.Key(e.passphrase, salt, iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
