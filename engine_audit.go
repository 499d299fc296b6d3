package goGallery

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goGallery/guard"
	"github.com/MrEthical07/goGallery/identity"
	"github.com/MrEthical07/goGallery/internal/audit"
	"github.com/MrEthical07/goGallery/session"
)

// AuditErrorCode is the coarse failure class recorded in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUnauthenticated AuditErrorCode = "unauthenticated"
	auditErrSessionExpired  AuditErrorCode = "session_expired"
	auditErrCredentials     AuditErrorCode = "credentials_expired"
	auditErrIdentityStatus  AuditErrorCode = "identity_status"
	auditErrIdentityNetwork AuditErrorCode = "identity_unreachable"
	auditErrIdentityDecode  AuditErrorCode = "identity_invalid_response"
	auditErrNoSession       AuditErrorCode = "no_session"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrInternal        AuditErrorCode = "internal_error"
)

// observer turns session and guard events into metrics and audit events.
type observer struct {
	metrics *Metrics
	audit   *audit.Dispatcher
	now     func() time.Time
}

var (
	_ session.FetchObserver = (*observer)(nil)
	_ guard.Observer        = (*observer)(nil)
)

func (o *observer) ObserveFetch(ctx context.Context, e session.FetchEvent) {
	if e.Coalesced {
		o.metrics.Inc(MetricUserFetchCoalesced)
	}
	if e.Err == nil {
		o.metrics.Inc(MetricUserFetchSuccess)
		if !e.Coalesced {
			o.metrics.Observe(MetricUserFetchLatency, e.Duration)
		}
		return
	}

	o.metrics.Inc(MetricUserFetchFailure)
	o.emit(ctx, AuditUserFetchFailed, false, e.SessionID, "", "", e.Err, func() map[string]string {
		meta := map[string]string{"coalesced": strconv.FormatBool(e.Coalesced)}
		if fe, ok := identity.AsFetchError(e.Err); ok {
			meta["kind"] = fe.Kind.String()
			if fe.StatusCode != 0 {
				meta["status"] = strconv.Itoa(fe.StatusCode)
			}
		}
		return meta
	})
}

func (o *observer) ObserveGuard(ctx context.Context, e guard.Event) {
	switch {
	case e.Outcome == guard.Allowed:
		o.metrics.Inc(MetricGuardAllowed)
		o.emit(ctx, AuditNavigationAllowed, true, e.SessionID, e.Route, e.Path, nil, nil)
	case e.Redirect != "":
		o.metrics.Inc(MetricGuardRedirected)
		o.emit(ctx, AuditNavigationRedirected, false, e.SessionID, e.Route, e.Path, e.Err, func() map[string]string {
			return map[string]string{"redirect": e.Redirect}
		})
	default:
		o.metrics.Inc(MetricGuardBlocked)
		o.emit(ctx, AuditNavigationBlocked, false, e.SessionID, e.Route, e.Path, e.Err, nil)
	}
}

func (o *observer) emit(
	ctx context.Context,
	eventType string,
	success bool,
	sessionID string,
	route string,
	path string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if o == nil || o.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: o.now().UTC(),
		EventType: eventType,
		SessionID: sessionID,
		Route:     route,
		Path:      path,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	o.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, identity.ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, guard.ErrNoSession):
		return auditErrNoSession
	case errors.Is(err, session.ErrBackendUnavailable):
		return auditErrUnavailable
	}

	if fe, ok := identity.AsFetchError(err); ok {
		switch fe.Kind {
		case identity.KindCredentials:
			return auditErrCredentials
		case identity.KindStatus:
			return auditErrIdentityStatus
		case identity.KindNetwork:
			return auditErrIdentityNetwork
		case identity.KindDecode:
			return auditErrIdentityDecode
		}
	}
	return auditErrInternal
}
