package goGallery

import (
	"io"

	"github.com/MrEthical07/goGallery/internal/audit"
)

// AuditEvent is one recorded navigation or session outcome.
type AuditEvent = audit.Event

// AuditSink receives audit events from the gallery's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers events to a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a JSONWriterSink on w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types.
const (
	AuditNavigationAllowed    = "navigation_allowed"
	AuditNavigationBlocked    = "navigation_blocked"
	AuditNavigationRedirected = "navigation_redirected"
	AuditUserFetchFailed      = "user_fetch_failed"
	AuditLogout               = "logout"
)
