package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goGallery/identity"
	"golang.org/x/sync/singleflight"
)

const defaultWriteTimeout = 2 * time.Second

var errEmptyRecord = errors.New("identity returned an empty record")

// FetchEvent describes one settled FetchUser call.
//
// Coalesced is true when the call joined a fetch already in flight for the
// same session instead of calling the identity service itself.
type FetchEvent struct {
	SessionID string
	Err       error
	Duration  time.Duration
	Coalesced bool
}

// FetchObserver receives a FetchEvent for every settled FetchUser call.
type FetchObserver interface {
	ObserveFetch(ctx context.Context, event FetchEvent)
}

// Store is the user-session handle for one session: the only writer of that
// session's user. A Store is cheap; create one per request or navigation.
type Store struct {
	sessionID    string
	creds        identity.Credentials
	fetcher      identity.Fetcher
	backend      Backend
	group        *singleflight.Group
	observer     FetchObserver
	writeTimeout time.Duration
	now          func() time.Time
}

// NewStore returns a standalone handle without coalescing. Most callers get
// handles from a [Manager] instead.
func NewStore(fetcher identity.Fetcher, backend Backend, sessionID string, creds identity.Credentials) (*Store, error) {
	if fetcher == nil {
		return nil, errors.New("identity fetcher required")
	}
	if backend == nil {
		return nil, errors.New("session backend required")
	}
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	return &Store{
		sessionID:    sessionID,
		creds:        creds,
		fetcher:      fetcher,
		backend:      backend,
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}, nil
}

// ProcessSessionID keys the single process-wide session of NewProcessStore.
const ProcessSessionID = "process"

// NewProcessStore returns a handle over one process-wide in-memory session,
// the shape of a single-user client.
func NewProcessStore(fetcher identity.Fetcher, creds identity.Credentials) (*Store, error) {
	return NewStore(fetcher, NewMemoryBackend(), ProcessSessionID, creds)
}

// SessionID returns the key this handle reads and writes.
func (s *Store) SessionID() string {
	return s.sessionID
}

// FetchUser asks the identity service for the current user and, on success,
// replaces the held user with the returned record.
//
// On failure the held user is left unchanged. Identity failures match
// identity.ErrIdentityFetch; storage failures match ErrBackendUnavailable.
// A record already received is written even if ctx is cancelled afterwards.
func (s *Store) FetchUser(ctx context.Context) error {
	start := s.now()

	if s.group == nil {
		err := s.fetchAndStore(ctx)
		s.observe(ctx, FetchEvent{SessionID: s.sessionID, Err: err, Duration: s.now().Sub(start)})
		return err
	}

	// led is set by the leader's fetch goroutine; followers never set it.
	var led atomic.Bool
	ch := s.group.DoChan(s.sessionID, func() (any, error) {
		led.Store(true)
		return nil, s.fetchAndStore(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		s.observe(ctx, FetchEvent{SessionID: s.sessionID, Err: res.Err, Duration: s.now().Sub(start), Coalesced: !led.Load()})
		return res.Err
	case <-ctx.Done():
		err := &identity.FetchError{Kind: identity.KindNetwork, Err: ctx.Err()}
		s.observe(ctx, FetchEvent{SessionID: s.sessionID, Err: err, Duration: s.now().Sub(start), Coalesced: !led.Load()})
		return err
	}
}

func (s *Store) fetchAndStore(ctx context.Context) error {
	rec, err := s.fetcher.CurrentUser(ctx, s.creds)
	if err != nil {
		if !errors.Is(err, identity.ErrIdentityFetch) {
			return &identity.FetchError{Kind: identity.KindNetwork, Err: err}
		}
		return err
	}
	if rec.IsZero() {
		return &identity.FetchError{Kind: identity.KindDecode, Err: errEmptyRecord}
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	if _, err := s.backend.Replace(writeCtx, s.sessionID, rec, s.now().UnixMilli()); err != nil {
		return err
	}
	return nil
}

// User returns the held user, or ok=false when none is held.
func (s *Store) User(ctx context.Context) (identity.UserRecord, bool, error) {
	sess, err := s.backend.Load(ctx, s.sessionID)
	if err != nil {
		return identity.UserRecord{}, false, err
	}
	return sess.User, sess.HasUser(), nil
}

// Session returns the full held state.
func (s *Store) Session(ctx context.Context) (UserSession, error) {
	return s.backend.Load(ctx, s.sessionID)
}

// Clear resets the held user to absent.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.sessionID)
}

func (s *Store) observe(ctx context.Context, event FetchEvent) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveFetch(ctx, event)
}
