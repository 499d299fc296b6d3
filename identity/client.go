package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserPath is the identity service's "get current user" endpoint.
const DefaultUserPath = "/api/user"

const defaultMaxResponseBytes = 1 << 20

// Fetcher is the identity-service contract consumed by the session store.
type Fetcher interface {
	CurrentUser(ctx context.Context, creds Credentials) (UserRecord, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, creds Credentials) (UserRecord, error)

// CurrentUser calls f.
func (f FetcherFunc) CurrentUser(ctx context.Context, creds Credentials) (UserRecord, error) {
	return f(ctx, creds)
}

// Config configures the HTTP identity client.
type Config struct {
	BaseURL              string
	UserPath             string
	Timeout              time.Duration
	MaxResponseBytes     int64
	PrecheckBearerExpiry bool
	ExpiryLeeway         time.Duration
	UserAgent            string
	HTTPClient           *http.Client
}

// Client fetches the current user over HTTP. It is safe for concurrent use.
type Client struct {
	endpoint string
	cfg      Config
	http     *http.Client
	now      func() time.Time
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("identity base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("identity base url must use http or https")
	}
	if base.Host == "" {
		return nil, errors.New("identity base url must include a host")
	}
	if cfg.UserPath == "" {
		cfg.UserPath = DefaultUserPath
	}
	if !strings.HasPrefix(cfg.UserPath, "/") {
		return nil, errors.New("identity user path must start with /")
	}
	if cfg.MaxResponseBytes < 0 {
		return nil, errors.New("identity MaxResponseBytes must be >= 0")
	}
	if cfg.MaxResponseBytes == 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}
	if cfg.Timeout < 0 || cfg.ExpiryLeeway < 0 {
		return nil, errors.New("identity durations must be >= 0")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint: strings.TrimRight(base.String(), "/") + cfg.UserPath,
		cfg:      cfg,
		http:     hc,
		now:      time.Now,
	}, nil
}

// Endpoint returns the absolute URL the client calls.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CurrentUser performs GET /api/user with creds attached. Every failure is a
// [*FetchError].
func (c *Client) CurrentUser(ctx context.Context, creds Credentials) (UserRecord, error) {
	if c.cfg.PrecheckBearerExpiry && creds.BearerToken != "" &&
		bearerExpired(creds.BearerToken, c.now(), c.cfg.ExpiryLeeway) {
		return UserRecord{}, &FetchError{Kind: KindCredentials, Err: ErrCredentialsExpired}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return UserRecord{}, &FetchError{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	creds.apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return UserRecord{}, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
		return UserRecord{}, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return UserRecord{}, &FetchError{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.cfg.MaxResponseBytes {
		return UserRecord{}, &FetchError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: ErrResponseTooLarge}
	}

	rec, err := ParseUserRecord(body)
	if err != nil {
		return UserRecord{}, &FetchError{Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}

	return rec, nil
}
