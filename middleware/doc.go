// Package middleware exposes HTTP middleware that binds a request to a
// gallery session.
//
// # Middleware
//
//   - [SessionCookie] issues or reads the session cookie and attaches a
//     [goGallery.Visitor] to the request context.
//   - [RequireUser] fetches the current user and rejects the request with 401
//     when the identity service does not vouch for it.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Gallery calls. Session state
// and the identity fetch stay in the gallery; the middleware only decides
// pass or reject.
package middleware
