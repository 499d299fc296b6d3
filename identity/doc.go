// Package identity is the client side of the external identity service that
// answers "who is the current user".
//
// # Wire contract
//
//	GET {BaseURL}/api/user
//	Accept: application/json
//	X-Requested-With: XMLHttpRequest
//
// A 2xx response carries a JSON object describing the authenticated user. Any
// other status (401, 419, ...) means the caller is not authenticated. The
// response body of a failure has no contract and is discarded.
//
// # Errors
//
// Every failure is reported as a [*FetchError], which matches
// [ErrIdentityFetch] under errors.Is. The [FetchErrorKind] tells network
// failures, non-success statuses, undecodable bodies, and locally rejected
// credentials apart.
//
// # What this package must NOT do
//
//   - Issue, refresh, or verify the signature of credentials.
//   - Hold per-user state (see package session for that).
//   - Interpret the shape of the user record beyond "a JSON object".
package identity
