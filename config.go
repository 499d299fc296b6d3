package goGallery

import (
	"errors"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goGallery/session"
)

// Config is the complete gallery configuration.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable. [Builder.Build] copies and validates the value.
type Config struct {
	Identity IdentityConfig
	Session  SessionConfig
	Guard    GuardConfig
	Routes   RoutesConfig
	Images   ImagesConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig describes the identity service the gallery asks for the
// current user. It is ignored when a fetcher is supplied with
// [Builder.WithIdentity].
type IdentityConfig struct {
	BaseURL              string
	UserPath             string
	Timeout              time.Duration
	MaxResponseBytes     int64
	PrecheckBearerExpiry bool
	ExpiryLeeway         time.Duration
	UserAgent            string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionBackend selects where user sessions are held.
type SessionBackend string

const (
	// SessionBackendAuto uses Redis when a client is supplied, memory otherwise.
	SessionBackendAuto SessionBackend = ""
	// SessionBackendMemory holds sessions in process memory.
	SessionBackendMemory SessionBackend = "memory"
	// SessionBackendRedis holds sessions in Redis.
	SessionBackendRedis SessionBackend = "redis"
)

// SessionConfig controls session storage and fetch behavior.
type SessionConfig struct {
	Backend           SessionBackend
	RedisPrefix       string
	TTL               time.Duration
	SlidingExpiration bool
	JitterEnabled     bool
	JitterRange       time.Duration
	// CoalesceFetches joins concurrent fetches of one session into a single
	// identity request.
	CoalesceFetches bool
	// WriteTimeout bounds the store write after a record was received.
	WriteTimeout time.Duration
	// CookieName is the browser cookie carrying the session ID.
	CookieName   string
	CookieSecure bool
}

/*
====================================
GUARD CONFIG
====================================
*/

// GuardConfig controls what a blocked navigation turns into.
type GuardConfig struct {
	// FailureRedirect receives blocked navigations. Empty aborts them.
	FailureRedirect string
	RedirectParam   string
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the paths of the gallery route table.
type RoutesConfig struct {
	HomePath     string
	ImagesPath   string
	LoginPath    string
	SignupPath   string
	MaxRedirects int
}

// ImagesConfig controls image listing.
type ImagesConfig struct {
	DefaultListLimit int
}

// AuditConfig controls the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the builder starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Identity: IdentityConfig{
			UserPath:         "/api/user",
			Timeout:          5 * time.Second,
			MaxResponseBytes: 1 << 20,
			ExpiryLeeway:     5 * time.Second,
		},
		Session: SessionConfig{
			Backend:           SessionBackendAuto,
			RedisPrefix:       "gs",
			TTL:               2 * time.Hour,
			SlidingExpiration: true,
			JitterEnabled:     true,
			JitterRange:       30 * time.Second,
			WriteTimeout:      2 * time.Second,
			CookieName:        "gallery_session",
		},
		Guard: GuardConfig{
			FailureRedirect: "/login",
			RedirectParam:   "redirect",
		},
		Routes: RoutesConfig{
			HomePath:     "/",
			ImagesPath:   "/images",
			LoginPath:    "/login",
			SignupPath:   "/signup",
			MaxRedirects: 10,
		},
		Images: ImagesConfig{
			DefaultListLimit: 50,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting in c.
func (c *Config) Validate() error {
	// Identity
	if c.Identity.BaseURL != "" {
		u, err := url.Parse(c.Identity.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("Identity BaseURL must be an absolute http(s) URL")
		}
	}
	if c.Identity.UserPath != "" && !strings.HasPrefix(c.Identity.UserPath, "/") {
		return errors.New("Identity UserPath must start with /")
	}
	if c.Identity.Timeout < 0 {
		return errors.New("Identity Timeout must be >= 0")
	}
	if c.Identity.MaxResponseBytes < 0 {
		return errors.New("Identity MaxResponseBytes must be >= 0")
	}
	if c.Identity.MaxResponseBytes > session.MaxRecordSize {
		return errors.New("Identity MaxResponseBytes must not exceed session.MaxRecordSize")
	}
	if c.Identity.ExpiryLeeway < 0 {
		return errors.New("Identity ExpiryLeeway must be >= 0")
	}

	// Session
	switch c.Session.Backend {
	case SessionBackendAuto, SessionBackendMemory, SessionBackendRedis:
	default:
		return errors.New("Session Backend must be 'memory' or 'redis'")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.JitterRange < 0 {
		return errors.New("Session JitterRange must be >= 0")
	}
	if c.Session.JitterRange > time.Duration((math.MaxInt64-1)/2) {
		return errors.New("Session JitterRange is too large")
	}
	if c.Session.JitterEnabled && c.Session.JitterRange <= 0 {
		return errors.New("Session JitterRange must be > 0 when JitterEnabled is true")
	}
	if c.Session.JitterEnabled && c.Session.JitterRange >= c.Session.TTL {
		return errors.New("Session JitterRange must be < TTL")
	}
	if c.Session.WriteTimeout <= 0 {
		return errors.New("Session WriteTimeout must be > 0")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must not be empty")
	}

	// Routes
	paths := map[string]string{
		"HomePath":   c.Routes.HomePath,
		"ImagesPath": c.Routes.ImagesPath,
		"LoginPath":  c.Routes.LoginPath,
		"SignupPath": c.Routes.SignupPath,
	}
	seen := make(map[string]bool, len(paths))
	for name, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return errors.New("Routes " + name + " must start with /")
		}
		if seen[p] {
			return errors.New("Routes paths must be distinct")
		}
		seen[p] = true
	}
	if c.Routes.MaxRedirects < 0 {
		return errors.New("Routes MaxRedirects must be >= 0")
	}

	// Guard
	if c.Guard.FailureRedirect != "" {
		if !strings.HasPrefix(c.Guard.FailureRedirect, "/") {
			return errors.New("Guard FailureRedirect must be a local path")
		}
		target, err := url.Parse(c.Guard.FailureRedirect)
		if err != nil {
			return errors.New("Guard FailureRedirect is not a valid path")
		}
		if target.Path == c.Routes.HomePath || target.Path == c.Routes.ImagesPath {
			return errors.New("Guard FailureRedirect must not point into the protected routes")
		}
	}

	// Images
	if c.Images.DefaultListLimit <= 0 {
		return errors.New("Images DefaultListLimit must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
