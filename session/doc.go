// Package session holds the current user of a browser session and refreshes it
// from the identity service.
//
// # Model
//
// A [UserSession] carries the opaque user record (or none) plus bookkeeping:
// when it was fetched and how many successful fetches replaced it. The
// [Store] handle is the only writer. [Store.FetchUser] either replaces the
// user wholesale or leaves the previous value untouched.
//
// # Backends
//
//   - [MemoryBackend]: process-wide state, guarded by a RWMutex.
//   - [RedisBackend]: session-wide state in Redis, one binary-encoded value
//     per session key with TTL and optional sliding renewal.
//
// # Concurrency
//
// Concurrent fetches on the same session proceed independently and the last
// completed write wins. A [Manager] built with CoalesceFetches collapses
// concurrent fetches of one session into a single identity call.
//
// # What this package must NOT do
//
//   - Make routing decisions (package guard owns allow/deny).
//   - Interpret the user record beyond presence.
//   - Leave a partially written session behind on failure.
package session
