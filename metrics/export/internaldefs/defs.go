package internaldefs

import (
	goGallery "github.com/MrEthical07/goGallery"
)

// CounterDef names one gallery counter for exporters.
type CounterDef struct {
	ID   goGallery.MetricID
	Name string
	Help string
}

// HistogramDef names one gallery histogram for exporters.
type HistogramDef struct {
	ID   goGallery.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: goGallery.MetricUserFetchSuccess, Name: "gogallery_user_fetch_success_total", Help: "Current-user fetches that stored a record."},
	{ID: goGallery.MetricUserFetchFailure, Name: "gogallery_user_fetch_failure_total", Help: "Current-user fetches that failed."},
	{ID: goGallery.MetricUserFetchCoalesced, Name: "gogallery_user_fetch_coalesced_total", Help: "Current-user fetches that joined an in-flight request."},
	{ID: goGallery.MetricGuardAllowed, Name: "gogallery_guard_allowed_total", Help: "Guarded navigations allowed to continue."},
	{ID: goGallery.MetricGuardBlocked, Name: "gogallery_guard_blocked_total", Help: "Guarded navigations aborted."},
	{ID: goGallery.MetricGuardRedirected, Name: "gogallery_guard_redirected_total", Help: "Guarded navigations redirected to the failure route."},
	{ID: goGallery.MetricNavigationNotFound, Name: "gogallery_navigation_not_found_total", Help: "Navigations that ended on the not-found view."},
	{ID: goGallery.MetricLogout, Name: "gogallery_logout_total", Help: "Explicit logouts."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goGallery.MetricUserFetchLatency, Name: "gogallery_user_fetch_latency_seconds", Help: "Identity service fetch latency."},
}

// AuditDroppedName is the counter of audit events dropped on a full buffer.
const (
	AuditDroppedName = "gogallery_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped on a full dispatcher buffer."
)

// BucketCount is the number of latency buckets, +Inf included.
const BucketCount = 8

// HistogramBounds are the upper bounds of the latency buckets in seconds.
var HistogramBounds = [BucketCount]string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// CumulativeBuckets folds raw per-bucket counts into cumulative counts.
// Missing trailing buckets count as zero.
func CumulativeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
