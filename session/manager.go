package session

import (
	"errors"
	"time"

	"github.com/MrEthical07/goGallery/identity"
	"golang.org/x/sync/singleflight"
)

// ManagerConfig tunes handles created by a [Manager].
type ManagerConfig struct {
	// CoalesceFetches joins concurrent FetchUser calls for the same session
	// into one identity request.
	CoalesceFetches bool
	// WriteTimeout bounds the backend write after a record is received.
	// Zero means 2s.
	WriteTimeout time.Duration
}

// Manager hands out [Store] handles that share one fetcher, backend and
// coalescing group.
type Manager struct {
	fetcher  identity.Fetcher
	backend  Backend
	cfg      ManagerConfig
	group    *singleflight.Group
	observer FetchObserver
	now      func() time.Time
}

// NewManager validates its collaborators and returns a Manager.
func NewManager(fetcher identity.Fetcher, backend Backend, cfg ManagerConfig, observer FetchObserver) (*Manager, error) {
	if fetcher == nil {
		return nil, errors.New("identity fetcher required")
	}
	if backend == nil {
		return nil, errors.New("session backend required")
	}
	if cfg.WriteTimeout < 0 {
		return nil, errors.New("write timeout must be >= 0")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	m := &Manager{
		fetcher:  fetcher,
		backend:  backend,
		cfg:      cfg,
		observer: observer,
		now:      time.Now,
	}
	if cfg.CoalesceFetches {
		m.group = &singleflight.Group{}
	}
	return m, nil
}

// Session returns the handle for sessionID. creds are forwarded to the
// identity service on every FetchUser through this handle.
func (m *Manager) Session(sessionID string, creds identity.Credentials) (*Store, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	return &Store{
		sessionID:    sessionID,
		creds:        creds,
		fetcher:      m.fetcher,
		backend:      m.backend,
		group:        m.group,
		observer:     m.observer,
		writeTimeout: m.cfg.WriteTimeout,
		now:          m.now,
	}, nil
}

// Backend returns the shared backend.
func (m *Manager) Backend() Backend {
	return m.backend
}
