package session

import "github.com/MrEthical07/goGallery/identity"

// UserSession defines the held state of one session.
//
// User is the zero [identity.UserRecord] when no fetch has succeeded yet or
// after Clear. FetchedAt is the unix-millisecond time of the last successful
// fetch. Generation counts successful fetches since the session began.
type UserSession struct {
	SessionID  string
	User       identity.UserRecord
	FetchedAt  int64
	Generation uint64
}

// HasUser reports whether a user record is held.
func (s UserSession) HasUser() bool {
	return !s.User.IsZero()
}
