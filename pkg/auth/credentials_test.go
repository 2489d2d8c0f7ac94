package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountUsable(t *testing.T) {
	tests := []struct {
		name    string
		account *Account
		usable  bool
	}{
		{"nil account", nil, false},
		{"empty", &Account{Handle: "truthuser"}, false},
		{"token only", &Account{Handle: "truthuser", Token: "tok"}, true},
		{"username and password", &Account{Handle: "truthuser", Username: "u", Password: "p"}, true},
		{"username without password", &Account{Handle: "truthuser", Username: "u"}, false},
		{"password without username", &Account{Handle: "truthuser", Password: "p"}, false},
		{"both token and password pair", &Account{Handle: "truthuser", Username: "u", Password: "p", Token: "tok"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.usable, tt.account.Usable())
		})
	}
}

func TestMockStoreCRUD(t *testing.T) {
	store := NewMockStore()

	account := &Account{Handle: "realdonaldtrump", Token: "tok"}
	require.NoError(t, store.Store(account))
	assert.True(t, store.Exists("realdonaldtrump"))

	got, err := store.Retrieve("realdonaldtrump")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, store.Delete("realdonaldtrump"))
	assert.False(t, store.Exists("realdonaldtrump"))

	_, err = store.Retrieve("realdonaldtrump")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreFallsBack(t *testing.T) {
	broken := NewMockStore()
	broken.FailStore = true
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	err := manager.Store(&Account{Handle: "truthuser", Token: "tok"})
	require.NoError(t, err)

	assert.False(t, broken.Exists("truthuser"))
	assert.True(t, working.Exists("truthuser"))
}

func TestManagerStoreRejectsUnusable(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	err := manager.Store(&Account{Handle: "truthuser"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = manager.Store(&Account{Handle: "truthuser", Username: "only-user"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerRetrieveChecksStoresInOrder(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, second.Store(&Account{Handle: "truthuser", Token: "from-second"}))
	manager := NewManagerWithStores(first, second)

	got, err := manager.Retrieve("truthuser")
	require.NoError(t, err)
	assert.Equal(t, "from-second", got.Token)

	require.NoError(t, first.Store(&Account{Handle: "truthuser", Token: "from-first"}))
	got, err = manager.Retrieve("truthuser")
	require.NoError(t, err)
	assert.Equal(t, "from-first", got.Token)
}

func TestManagerListPrefersNewest(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	older := time.Now().Add(-time.Hour)
	require.NoError(t, first.Store(&Account{Handle: "truthuser", Token: "stale", LastModified: older}))
	require.NoError(t, second.Store(&Account{Handle: "truthuser", Token: "fresh", LastModified: time.Now()}))

	manager := NewManagerWithStores(first, second)
	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "fresh", accounts[0].Token)
}

func TestManagerDelete(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	require.NoError(t, first.Store(&Account{Handle: "truthuser", Token: "tok"}))
	require.NoError(t, second.Store(&Account{Handle: "truthuser", Token: "tok"}))

	manager := NewManagerWithStores(first, second)
	require.NoError(t, manager.Delete("truthuser"))
	assert.False(t, first.Exists("truthuser"))
	assert.False(t, second.Exists("truthuser"))

	err := manager.Delete("truthuser")
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	t.Run("no variables", func(t *testing.T) {
		t.Setenv("TRUTHSCRAPER_USERNAME", "")
		t.Setenv("TRUTHSCRAPER_PASSWORD", "")
		t.Setenv("TRUTHSCRAPER_TOKEN", "")
		store := NewEnvironmentStore()
		_, err := store.Retrieve("anyone")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)
		assert.False(t, store.Exists("anyone"))
	})

	t.Run("token configured", func(t *testing.T) {
		t.Setenv("TRUTHSCRAPER_TOKEN", "env-token")
		store := NewEnvironmentStore()

		account, err := store.Retrieve("")
		require.NoError(t, err)
		assert.Equal(t, "env-token", account.Token)

		accounts, err := store.List()
		require.NoError(t, err)
		assert.Len(t, accounts, 1)
	})

	t.Run("handle mismatch", func(t *testing.T) {
		t.Setenv("TRUTHSCRAPER_USERNAME", "envuser")
		t.Setenv("TRUTHSCRAPER_PASSWORD", "envpass")
		store := NewEnvironmentStore()

		_, err := store.Retrieve("someoneelse")
		assert.ErrorIs(t, err, ErrCredentialsNotFound)

		account, err := store.Retrieve("envuser")
		require.NoError(t, err)
		assert.Equal(t, "envpass", account.Password)
	})

	t.Run("read only", func(t *testing.T) {
		store := NewEnvironmentStore()
		assert.ErrorIs(t, store.Store(&Account{Handle: "x", Token: "t"}), ErrStoreUnavailable)
		assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
	})
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("TRUTHSCRAPER_TOKEN", "env-token")

	mock := NewMockStore()
	require.NoError(t, mock.Store(&Account{Handle: "stored", Token: "stored-token"}))
	manager := NewManagerWithStores(mock, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-token", account.Token)
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	t.Setenv("TRUTHSCRAPER_PASSPHRASE", "test-passphrase")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)

	account := &Account{Handle: "truthuser", Username: "u", Password: "p", LastModified: time.Now()}
	require.NoError(t, store.Store(account))

	// A fresh store over the same file must decrypt what the first wrote.
	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)

	got, err := reopened.Retrieve("truthuser")
	require.NoError(t, err)
	assert.Equal(t, "u", got.Username)
	assert.Equal(t, "p", got.Password)

	accounts, err := reopened.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, reopened.Delete("truthuser"))
	_, err = reopened.Retrieve("truthuser")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	t.Setenv("TRUTHSCRAPER_PASSPHRASE", "right")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{Handle: "truthuser", Token: "tok"}))

	t.Setenv("TRUTHSCRAPER_PASSPHRASE", "wrong")
	store, err = NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = store.Retrieve("truthuser")
	assert.Error(t, err)
}
