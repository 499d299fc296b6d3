package prometheus

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"

	goGallery "github.com/MrEthical07/goGallery"
	"github.com/MrEthical07/goGallery/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. *goGallery.Gallery
// satisfies it.
type Source interface {
	MetricsSnapshot() goGallery.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders a Source on demand.
type Exporter struct {
	source Source
}

// NewExporter returns an exporter reading from source.
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = e.Encode(w)
	})
}

// Render returns the exposition text. It is empty while metrics are
// disabled and no audit event was dropped.
func (e *Exporter) Render() string {
	var b strings.Builder
	_ = e.Encode(&b)
	return b.String()
}

// Encode writes the exposition text to w.
func (e *Exporter) Encode(w io.Writer) error {
	if e == nil || e.source == nil {
		return nil
	}

	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	for _, def := range internaldefs.CounterDefs {
		writeCounter(bw, def.Name, def.Help, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(bw, def.Name, def.Help, internaldefs.CumulativeBuckets(raw))
	}
	writeCounter(bw, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)
	return bw.Flush()
}

func writeHeader(w *bufio.Writer, name, help, kind string) {
	w.WriteString("# HELP " + name + " " + escapeHelp(help) + "\n")
	w.WriteString("# TYPE " + name + " " + kind + "\n")
}

func writeCounter(w *bufio.Writer, name, help string, value uint64) {
	writeHeader(w, name, help, "counter")
	w.WriteString(name + " " + strconv.FormatUint(value, 10) + "\n")
}

// The snapshot carries no observation sum, so _sum is always 0.
func writeHistogram(w *bufio.Writer, name, help string, cumulative [internaldefs.BucketCount]uint64) {
	writeHeader(w, name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.WriteString(name + `_bucket{le="` + le + `"} ` + strconv.FormatUint(cumulative[i], 10) + "\n")
	}
	w.WriteString(name + "_count " + strconv.FormatUint(cumulative[internaldefs.BucketCount-1], 10) + "\n")
	w.WriteString(name + "_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}
