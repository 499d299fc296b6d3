package main

import (
	"fmt"
	"time"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/caarlos0/env/v11"
)

// serverConfig is read from GALLERY_* environment variables.
type serverConfig struct {
	Addr            string        `env:"GALLERY_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"GALLERY_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	IdentityURL     string        `env:"GALLERY_IDENTITY_URL"     envDefault:"http://localhost:8000"`
	IdentityTimeout time.Duration `env:"GALLERY_IDENTITY_TIMEOUT" envDefault:"5s"`
	PrecheckBearer  bool          `env:"GALLERY_PRECHECK_BEARER"`

	// RedisAddr selects the Redis session backend. With UseMiniredis and no
	// address an in-process miniredis is started; otherwise sessions stay
	// in memory.
	RedisAddr       string        `env:"GALLERY_REDIS_ADDR"`
	UseMiniredis    bool          `env:"GALLERY_MINIREDIS"`
	RedisPrefix     string        `env:"GALLERY_REDIS_PREFIX"     envDefault:"gs"`
	SessionTTL      time.Duration `env:"GALLERY_SESSION_TTL"      envDefault:"2h"`
	CoalesceFetches bool          `env:"GALLERY_COALESCE_FETCHES" envDefault:"true"`
	CookieSecure    bool          `env:"GALLERY_COOKIE_SECURE"`

	FailureRedirect string `env:"GALLERY_FAILURE_REDIRECT" envDefault:"/login"`
	AbortOnFailure  bool   `env:"GALLERY_ABORT_ON_FAILURE"`

	SQLitePath string `env:"GALLERY_SQLITE_PATH" envDefault:"gallery.db"`

	LogLevel  string `env:"GALLERY_LOG_LEVEL"  envDefault:"info"`
	LogPretty bool   `env:"GALLERY_LOG_PRETTY"`
	AuditLog  bool   `env:"GALLERY_AUDIT_LOG"`
}

// loadConfig parses environ, or the process environment when environ is nil.
func loadConfig(environ map[string]string) (serverConfig, error) {
	var cfg serverConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return serverConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c serverConfig) galleryConfig() goGallery.Config {
	cfg := goGallery.DefaultConfig()

	cfg.Identity.BaseURL = c.IdentityURL
	cfg.Identity.Timeout = c.IdentityTimeout
	cfg.Identity.PrecheckBearerExpiry = c.PrecheckBearer

	cfg.Session.RedisPrefix = c.RedisPrefix
	cfg.Session.TTL = c.SessionTTL
	cfg.Session.CoalesceFetches = c.CoalesceFetches
	cfg.Session.CookieSecure = c.CookieSecure
	if cfg.Session.JitterRange >= cfg.Session.TTL {
		cfg.Session.JitterEnabled = false
	}

	cfg.Guard.FailureRedirect = c.FailureRedirect
	if c.AbortOnFailure {
		cfg.Guard.FailureRedirect = ""
	}

	cfg.Audit.Enabled = c.AuditLog
	return cfg
}
