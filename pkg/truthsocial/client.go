package truthsocial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/config"
	aerrors "github.com/pbiosca-fulcrum/truthsocialscraping/pkg/errors"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/ratelimit"
)

// Credentials identifies one Truth Social account: either a ready bearer
// token, or a username/password pair to exchange for one.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Client is a Truth Social API client. One client owns one bearer token and
// one rate-limit state; do not share a client across concurrently running
// fetches without external synchronization.
type Client struct {
	httpClient *http.Client
	apiBase    string
	tokenURL   string
	creds      Credentials
	userAgents []string

	mu    sync.Mutex
	token string

	governor *ratelimit.Governor
	logger   logger.Logger

	now func() time.Time
}

// New creates a client from the effective configuration.
func New(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	base := cfg.TruthSocial.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.TruthSocial.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    base,
		tokenURL:   tokenURL(base),
		creds: Credentials{
			Username: cfg.TruthSocial.Username,
			Password: cfg.TruthSocial.Password,
			Token:    cfg.TruthSocial.Token,
		},
		userAgents: cfg.TruthSocial.UserAgents,
		governor:   ratelimit.NewGovernor(cfg.RateLimit.RemainingThreshold, cfg.RateLimit.FallbackSleep, log),
		logger:     log,
		now:        time.Now,
	}
}

// NewWithCredentials creates a client against the default API base, mainly
// for library consumers that do not use the config layer.
func NewWithCredentials(creds Credentials, log logger.Logger) *Client {
	cfg := config.DefaultConfig()
	cfg.TruthSocial.Username = creds.Username
	cfg.TruthSocial.Password = creds.Password
	cfg.TruthSocial.Token = creds.Token
	return New(cfg, log)
}

// Governor exposes the client's rate governor, mainly so callers can read
// the current quota snapshot.
func (c *Client) Governor() *ratelimit.Governor {
	return c.governor
}

// resolveToken returns the bearer token, performing the password-grant
// exchange on first use. A token supplied at construction is returned
// unchanged, never re-validated or refreshed. The exchange is never retried:
// repeated failed logins risk account lockout.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}
	if c.creds.Token != "" {
		c.token = c.creds.Token
		return c.token, nil
	}
	if c.creds.Username == "" || c.creds.Password == "" {
		return "", aerrors.New(aerrors.ErrorTypeCredential,
			"either a token or both username and password are required")
	}

	payload := map[string]string{
		"client_id":     clientID,
		"client_secret": clientSecret,
		"grant_type":    "password",
		"username":      c.creds.Username,
		"password":      c.creds.Password,
		"redirect_uri":  "urn:ietf:wg:oauth:2.0:oob",
		"scope":         "read",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", aerrors.New(aerrors.ErrorTypeAuthentication, "failed to encode token request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", aerrors.New(aerrors.ErrorTypeAuthentication, "failed to create token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.randomUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("token exchange failed")
		return "", aerrors.New(aerrors.ErrorTypeAuthentication, "token exchange failed: %v", err)
	}
	defer resp.Body.Close()

	c.governor.Observe(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", aerrors.NewWithCode(aerrors.ErrorTypeAuthentication, resp.StatusCode,
			"failed to read token response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorWithFields("token endpoint rejected login", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return "", aerrors.NewWithCode(aerrors.ErrorTypeAuthentication, resp.StatusCode,
			"token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", aerrors.NewWithCode(aerrors.ErrorTypeAuthentication, resp.StatusCode,
			"token response carried no access token")
	}

	c.token = tokenResp.AccessToken
	// The token is sensitive; surfaced at debug only.
	c.logger.WithField("token", c.token).Debug("obtained bearer token")
	return c.token, nil
}

// doGet performs one HTTP call against a fully built URL and decodes the
// JSON body. The response headers are always fed to the rate governor before
// returning, even when the body fails to parse. A non-JSON body is logged
// and returned as a nil value, not an error.
func (c *Client) doGet(ctx context.Context, rawURL string) (interface{}, http.Header, error) {
	token, err := c.resolveToken(ctx)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, aerrors.New(aerrors.ErrorTypeTransport, "failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.randomUserAgent())
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("request failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return nil, nil, aerrors.New(aerrors.ErrorTypeTransport, "request failed: %v", err)
	}
	defer resp.Body.Close()

	c.governor.Observe(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.Header, aerrors.NewWithCode(aerrors.ErrorTypeTransport, resp.StatusCode,
			"failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("request completed", map[string]interface{}{
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": c.now().Sub(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t := aerrors.ErrorTypeTransport
		if resp.StatusCode == http.StatusNotFound {
			t = aerrors.ErrorTypeNotFound
		}
		return nil, resp.Header, aerrors.NewWithCode(t, resp.StatusCode,
			"platform returned status %d: %s", resp.StatusCode, preview(body))
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.logger.ErrorWithFields("response body is not valid JSON", map[string]interface{}{
			"url":          rawURL,
			"status":       resp.StatusCode,
			"body_preview": preview(body),
		})
		return nil, resp.Header, nil
	}

	return decoded, resp.Header, nil
}

// get performs a GET against a path relative to the API base.
func (c *Client) get(ctx context.Context, path string, params url.Values) (interface{}, error) {
	v, _, err := c.doGet(ctx, buildURL(c.apiBase, path, params))
	return v, err
}

// Lookup resolves a user handle into the account record, including the
// numeric account id the timeline endpoints require.
func (c *Client) Lookup(ctx context.Context, handle string) (Item, error) {
	params := url.Values{}
	params.Set("acct", SanitizeHandle(handle))

	v, err := c.get(ctx, lookupEndpoint, params)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errMalformedCollection(v)
	}
	account := Item(obj)
	if msg, ok := account.ErrorField(); ok {
		return nil, errUpstream(msg)
	}
	if account.ID() == "" {
		return nil, errUpstream(fmt.Sprintf("lookup for %q returned no account id", handle))
	}
	return account, nil
}

// preview truncates a response body for log lines.
func preview(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func errUpstream(msg string) error {
	return aerrors.New(aerrors.ErrorTypeUpstream, "platform reported error: %s", msg)
}

func errMalformedCollection(v interface{}) error {
	return aerrors.New(aerrors.ErrorTypeDecode, "response is not a well-formed collection: %T", v)
}
