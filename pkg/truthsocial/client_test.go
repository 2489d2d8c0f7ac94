package truthsocial

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
)

// newTestClient builds a client pointed at a mock server, pre-seeded with a
// token so no login round trip happens.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TruthSocial.BaseURL = server.URL + "/api"
	cfg.TruthSocial.Token = "test-token"
	return New(cfg, logger.NewTestLogger())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// makeStatuses builds fake status records with descending ids starting at
// high, timestamped one minute apart ending at base.
func makeStatuses(high, count int, base time.Time) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, count)
	for i := 0; i < count; i++ {
		id := high - i
		out = append(out, map[string]interface{}{
			"id":         fmt.Sprintf("%d", id),
			"content":    fmt.Sprintf("status %d", id),
			"created_at": base.Add(-time.Duration(i) * time.Minute).UTC().Format(time.RFC3339),
		})
	}
	return out
}

func TestResolveTokenPrefersSuppliedToken(t *testing.T) {
	c := NewWithCredentials(Credentials{Token: "supplied"}, logger.NewTestLogger())

	tok, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "supplied", tok)
}

func TestResolveTokenRequiresCompleteCredentials(t *testing.T) {
	for _, creds := range []Credentials{
		{},
		{Username: "user"},
		{Password: "pass"},
	} {
		c := NewWithCredentials(creds, logger.NewTestLogger())
		_, err := c.resolveToken(context.Background())
		require.Error(t, err)
		assert.True(t, aerrors.IsType(err, aerrors.ErrorTypeCredential))
		assert.True(t, aerrors.IsFatal(err))
	}
}

func TestResolveTokenPasswordGrant(t *testing.T) {
	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		writeJSON(w, map[string]string{"access_token": "granted-token"})
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.TruthSocial.BaseURL = server.URL + "/api"
	cfg.TruthSocial.Username = "user"
	cfg.TruthSocial.Password = "pass"
	c := New(cfg, logger.NewTestLogger())

	tok, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "granted-token", tok)
	assert.Equal(t, "password", gotPayload["grant_type"])
	assert.Equal(t, "user", gotPayload["username"])
	assert.Equal(t, "pass", gotPayload["password"])

	// Token lives for the client's lifetime; no second exchange.
	tok2, err := c.resolveToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tok, tok2)
}

func TestResolveTokenBadLoginIsAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]string{"error": "invalid_grant"})
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.TruthSocial.BaseURL = server.URL + "/api"
	cfg.TruthSocial.Username = "user"
	cfg.TruthSocial.Password = "wrong"
	c := New(cfg, logger.NewTestLogger())

	_, err := c.resolveToken(context.Background())
	require.Error(t, err)
	assert.True(t, aerrors.IsType(err, aerrors.ErrorTypeAuthentication))
	assert.True(t, aerrors.IsFatal(err))
}

func TestResolveTokenMissingAccessTokenIsAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"token_type": "Bearer"})
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.TruthSocial.BaseURL = server.URL + "/api"
	cfg.TruthSocial.Username = "user"
	cfg.TruthSocial.Password = "pass"
	c := New(cfg, logger.NewTestLogger())

	_, err := c.resolveToken(context.Background())
	require.Error(t, err)
	assert.True(t, aerrors.IsType(err, aerrors.ErrorTypeAuthentication))
}

func TestDoGetSendsBearerAndClientIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		writeJSON(w, []map[string]interface{}{})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.doGet(context.Background(), server.URL+"/api/v1/trends")
	require.NoError(t, err)
}

func TestDoGetInvalidJSONReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-limit", "300")
		w.Header().Set("x-ratelimit-remaining", "299")
		fmt.Fprint(w, "<html>error</html>")
	}))
	defer server.Close()

	c := newTestClient(t, server)
	v, _, err := c.doGet(context.Background(), server.URL+"/api/v1/trends")
	require.NoError(t, err)
	assert.Nil(t, v)

	// Headers reached the governor despite the parse failure.
	limit, remaining, _ := c.Governor().Snapshot()
	assert.Equal(t, 300, limit)
	assert.Equal(t, 299, remaining)
}

func TestDoGetNon2xxIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		writeJSON(w, map[string]string{"error": "upstream down"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, _, err := c.doGet(context.Background(), server.URL+"/api/v1/trends")
	require.Error(t, err)
	assert.True(t, aerrors.IsType(err, aerrors.ErrorTypeTransport))
	assert.False(t, aerrors.IsFatal(err))
}

func TestLookupResolvesHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/accounts/lookup", r.URL.Path)
		assert.Equal(t, "someuser", r.URL.Query().Get("acct"))
		writeJSON(w, map[string]interface{}{"id": "109000000000000001", "acct": "someuser"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	account, err := c.Lookup(context.Background(), "@someuser")
	require.NoError(t, err)
	assert.Equal(t, "109000000000000001", account.ID())
}

func TestLookupUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"error": "Record not found"})
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.Lookup(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, aerrors.IsType(err, aerrors.ErrorTypeUpstream))
}
