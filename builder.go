package goGallery

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGallery/guard"
	"github.com/MrEthical07/goGallery/identity"
	"github.com/MrEthical07/goGallery/images"
	"github.com/MrEthical07/goGallery/internal/audit"
	"github.com/MrEthical07/goGallery/router"
	"github.com/MrEthical07/goGallery/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles a [Gallery].
//
// Builder instances are single-use: configure with the With methods, then
// call Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	identity  identity.Fetcher
	images    images.Repository
	auditSink AuditSink
	logger    zerolog.Logger

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client for the Redis session backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentity supplies the identity fetcher. Without one, Build creates an
// [identity.Client] from Config.Identity.
func (b *Builder) WithIdentity(f identity.Fetcher) *Builder {
	b.identity = f
	return b
}

// WithImages supplies the image metadata repository.
func (b *Builder) WithImages(repo images.Repository) *Builder {
	b.images = repo
	return b
}

// WithAuditSink supplies the audit sink. It is used only when Config.Audit
// is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the logger. The default discards everything.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the fetch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the gallery.
func (b *Builder) Build() (*Gallery, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- IDENTITY --------
	fetcher := b.identity
	if fetcher == nil {
		if cfg.Identity.BaseURL == "" {
			return nil, errors.New("identity fetcher or Identity BaseURL required")
		}
		client, err := identity.NewClient(identity.Config{
			BaseURL:              cfg.Identity.BaseURL,
			UserPath:             cfg.Identity.UserPath,
			Timeout:              cfg.Identity.Timeout,
			MaxResponseBytes:     cfg.Identity.MaxResponseBytes,
			PrecheckBearerExpiry: cfg.Identity.PrecheckBearerExpiry,
			ExpiryLeeway:         cfg.Identity.ExpiryLeeway,
			UserAgent:            cfg.Identity.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		fetcher = client
	}

	// -------- SESSION BACKEND --------
	var backend session.Backend
	switch cfg.Session.Backend {
	case SessionBackendRedis:
		if b.redis == nil {
			return nil, errors.New("Session Backend 'redis' requires redis client")
		}
		backend = newRedisBackend(b.redis, cfg.Session)
	case SessionBackendMemory:
		backend = session.NewMemoryBackend()
	default:
		if b.redis != nil {
			backend = newRedisBackend(b.redis, cfg.Session)
		} else {
			backend = session.NewMemoryBackend()
		}
	}

	metrics := NewMetrics(cfg.Metrics)
	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	obs := &observer{metrics: metrics, audit: dispatcher, now: time.Now}

	manager, err := session.NewManager(fetcher, backend, session.ManagerConfig{
		CoalesceFetches: cfg.Session.CoalesceFetches,
		WriteTimeout:    cfg.Session.WriteTimeout,
	}, obs)
	if err != nil {
		dispatcher.Close()
		return nil, err
	}

	// -------- ROUTER --------
	routeGuard := guard.New(guard.Config{
		FailureRedirect: cfg.Guard.FailureRedirect,
		RedirectParam:   cfg.Guard.RedirectParam,
	}, b.logger.With().Str("component", "guard").Logger(), obs)

	rt, err := router.New(galleryRoutes(cfg.Routes, routeGuard), router.WithMaxRedirects(cfg.Routes.MaxRedirects))
	if err != nil {
		dispatcher.Close()
		return nil, err
	}

	b.built = true

	return &Gallery{
		config:   cfg,
		logger:   b.logger,
		sessions: manager,
		router:   rt,
		images:   b.images,
		audit:    dispatcher,
		metrics:  metrics,
		observer: obs,
	}, nil
}

func newRedisBackend(client redis.UniversalClient, cfg SessionConfig) *session.RedisBackend {
	return session.NewRedisBackend(
		client,
		cfg.RedisPrefix,
		cfg.TTL,
		cfg.SlidingExpiration,
		cfg.JitterEnabled,
		cfg.JitterRange,
	)
}
