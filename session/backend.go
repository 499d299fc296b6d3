package session

import (
	"context"
	"errors"
	"sync"

	"github.com/MrEthical07/goGallery/identity"
)

var (
	// ErrBackendUnavailable wraps storage failures.
	ErrBackendUnavailable = errors.New("session backend unavailable")
	// ErrSessionIDRequired is returned when a handle is requested without a session ID.
	ErrSessionIDRequired = errors.New("session id required")
)

// Backend persists [UserSession] values keyed by session ID.
//
// Implementations must make Replace atomic: a concurrent Load observes either
// the previous session or the replaced one, never a mix.
type Backend interface {
	// Load returns the held session. A session never written yields a
	// UserSession with only SessionID set and a nil error.
	Load(ctx context.Context, sessionID string) (UserSession, error)
	// Replace stores user as the held record, stamps fetchedAt, and advances
	// the generation by one.
	Replace(ctx context.Context, sessionID string, user identity.UserRecord, fetchedAt int64) (UserSession, error)
	// Delete resets the session to absent. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// MemoryBackend keeps sessions in process memory.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]UserSession
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]UserSession)}
}

// Load implements [Backend].
func (b *MemoryBackend) Load(ctx context.Context, sessionID string) (UserSession, error) {
	if err := ctx.Err(); err != nil {
		return UserSession{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	sess, ok := b.sessions[sessionID]
	if !ok {
		return UserSession{SessionID: sessionID}, nil
	}
	return sess, nil
}

// Replace implements [Backend].
func (b *MemoryBackend) Replace(ctx context.Context, sessionID string, user identity.UserRecord, fetchedAt int64) (UserSession, error) {
	if err := ctx.Err(); err != nil {
		return UserSession{}, err
	}
	if err := checkRecordSize(user); err != nil {
		return UserSession{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	next := UserSession{
		SessionID:  sessionID,
		User:       user,
		FetchedAt:  fetchedAt,
		Generation: b.sessions[sessionID].Generation + 1,
	}
	b.sessions[sessionID] = next
	return next, nil
}

// Delete implements [Backend].
func (b *MemoryBackend) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sessions, sessionID)
	return nil
}

// Len reports how many sessions are held.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}
