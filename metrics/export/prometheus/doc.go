// Package prometheus renders gallery metrics in the Prometheus text
// exposition format.
//
// Counters are named gogallery_*_total. The fetch latency histogram is
// gogallery_user_fetch_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate gallery state.
package prometheus
