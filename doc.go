// Package goGallery is a small image gallery whose pages are gated on the
// current user of the browser session.
//
// Every page request is a navigation through a route table: a guarded layout
// holding Home ("/") and Images ("/images"), the public Login and Signup
// pages, and a catch-all NotFound view. Entering the guarded layout fetches
// the current user from the identity service; the navigation completes only
// after that fetch succeeds.
//
// [Gallery] methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// goGallery is the public surface. It exposes [Gallery], [Builder], [Config]
// and value types ([Visitor], [ViewModel], [MetricsSnapshot]). Session state
// lives in package session, allow/deny in package guard, path resolution in
// package router, image metadata in package images.
//
// # What this package must NOT do
//
//   - Store image files or handle uploads.
//   - Hash passwords or issue auth tokens (the identity service does).
//   - Write the session user anywhere but through a session handle.
package goGallery
