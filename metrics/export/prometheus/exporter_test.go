package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/identity"
)

type fakeSource struct {
	snapshot goGallery.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGallery.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func emptySnapshot() goGallery.MetricsSnapshot {
	return goGallery.MetricsSnapshot{
		Counters:   map[goGallery.MetricID]uint64{},
		Histograms: map[goGallery.MetricID][]uint64{},
	}
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporter(fakeSource{snapshot: emptySnapshot()})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewExporter(fakeSource{
		snapshot: goGallery.MetricsSnapshot{
			Counters: map[goGallery.MetricID]uint64{
				goGallery.MetricGuardAllowed: 7,
			},
			Histograms: map[goGallery.MetricID][]uint64{
				goGallery.MetricUserFetchLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE gogallery_guard_allowed_total counter",
		"gogallery_guard_allowed_total 7",
		"gogallery_guard_blocked_total 0",
		`gogallery_user_fetch_latency_seconds_bucket{le="0.005"} 1`,
		`gogallery_user_fetch_latency_seconds_bucket{le="+Inf"} 36`,
		"gogallery_user_fetch_latency_seconds_count 36",
		"gogallery_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsDisabledHistogram(t *testing.T) {
	snap := emptySnapshot()
	snap.Counters[goGallery.MetricLogout] = 1
	out := NewExporter(fakeSource{snapshot: snap}).Render()
	if strings.Contains(out, "latency") {
		t.Fatalf("histogram rendered without data:\n%s", out)
	}
}

func TestHandlerServesGallery(t *testing.T) {
	g, err := goGallery.New().
		WithIdentity(identity.FetcherFunc(func(context.Context, identity.Credentials) (identity.UserRecord, error) {
			return identity.MustParseUserRecord(`{"id":1}`), nil
		})).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer g.Close()

	if _, err := g.Navigate(context.Background(), goGallery.Visitor{SessionID: "s"}, "/"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	rec := httptest.NewRecorder()
	NewExporter(g).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gogallery_guard_allowed_total 1") || !strings.Contains(body, "gogallery_user_fetch_success_total 1") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewExporter(fakeSource{
		snapshot: goGallery.MetricsSnapshot{
			Counters: map[goGallery.MetricID]uint64{
				goGallery.MetricUserFetchSuccess: 1000,
				goGallery.MetricUserFetchFailure: 40,
				goGallery.MetricGuardAllowed:     900,
				goGallery.MetricGuardRedirected:  100,
			},
			Histograms: map[goGallery.MetricID][]uint64{
				goGallery.MetricUserFetchLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
