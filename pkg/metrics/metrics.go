// Package metrics records run metrics for logmerge and exports them in the
// Prometheus text format, for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Group outcomes used as the "result" label.
const (
	ResultMerged = "merged"
	ResultCopied = "copied"
	ResultFailed = "failed"
)

// Recorder holds the metrics of one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	bytesRead      prometheus.Counter
	linesMerged    prometheus.Counter
	linesMalformed prometheus.Counter
	fileErrors     prometheus.Counter
	groups         *prometheus.CounterVec
	groupDuration  prometheus.Histogram
	runDuration    prometheus.Gauge
	lastRunTS      prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.bytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logmerge",
		Name:      "bytes_read_total",
		Help:      "Bytes read from source log files",
	})
	r.linesMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logmerge",
		Name:      "lines_merged_total",
		Help:      "Dated lines written to merged output",
	})
	r.linesMalformed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logmerge",
		Name:      "lines_malformed_total",
		Help:      "Lines dropped because their timestamp could not be parsed",
	})
	r.fileErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logmerge",
		Name:      "file_errors_total",
		Help:      "Source files that failed to open or read",
	})
	r.groups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logmerge",
		Name:      "groups_total",
		Help:      "Merge groups processed by result",
	}, []string{"result"})
	r.groupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "logmerge",
		Name:      "group_duration_seconds",
		Help:      "Time spent merging one group",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logmerge",
		Name:      "last_run_duration_seconds",
		Help:      "Wall-clock duration of the last run",
	})
	r.lastRunTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logmerge",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the end of the last run",
	})

	r.registry.MustRegister(
		r.bytesRead,
		r.linesMerged,
		r.linesMalformed,
		r.fileErrors,
		r.groups,
		r.groupDuration,
		r.runDuration,
		r.lastRunTS,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// AddBytes counts bytes read from source files.
func (r *Recorder) AddBytes(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.bytesRead.Add(float64(n))
}

// AddLines counts merged and malformed lines.
func (r *Recorder) AddLines(merged, malformed int) {
	if r == nil {
		return
	}
	r.linesMerged.Add(float64(merged))
	r.linesMalformed.Add(float64(malformed))
}

// AddFileErrors counts failed source files.
func (r *Recorder) AddFileErrors(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.fileErrors.Add(float64(n))
}

// GroupDone records the outcome and duration of one group.
func (r *Recorder) GroupDone(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.groups.WithLabelValues(result).Inc()
	r.groupDuration.Observe(d.Seconds())
}

// RunDone records the end of a run.
func (r *Recorder) RunDone(end time.Time, d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.Set(d.Seconds())
	r.lastRunTS.Set(float64(end.Unix()))
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
