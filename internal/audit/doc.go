// Package audit relays navigation and session events to a caller-supplied sink.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines writer, no-op).
//   - [Dispatcher]: buffered async relay that drops or waits on a full queue.
//   - [Event]: one record with its session, route and outcome.
//
// # What this package must NOT do
//
//   - Decide which events to emit (the gallery engine does).
//   - Import goGallery or any sibling internal package.
package audit
