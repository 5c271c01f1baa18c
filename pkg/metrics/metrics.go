// Package metrics records validation counts, timings and issue kinds.
//
// Counters are kept with lock-free atomics for in-process queries and mirrored
// into Prometheus collectors that can be registered with any Registerer.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gofhir/modelvalidator/pkg/issue"
)

// Namespace prefixes every Prometheus metric name.
const Namespace = "modelvalidator"

// Metrics tracks validation metrics. All methods are safe for concurrent use.
type Metrics struct {
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64

	// nanoseconds
	timeTotal atomic.Uint64
	timeMin   atomic.Uint64
	timeMax   atomic.Uint64

	issuesByKind sync.Map // issue.Kind -> *atomic.Uint64
	schemas      sync.Map // schema name -> *schemaMetrics

	validations *prometheus.CounterVec
	issues      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

type schemaMetrics struct {
	validations atomic.Uint64
	valid       atomic.Uint64
	totalTime   atomic.Uint64
	issues      atomic.Uint64
}

// New creates a Metrics instance with unregistered Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "validations_total",
				Help:      "Total number of validations by schema and result.",
			},
			[]string{"schema", "result"},
		),
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "issues_total",
				Help:      "Total number of reported issues by schema and kind.",
			},
			[]string{"schema", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "validation_duration_seconds",
				Help:      "Duration of schema validations.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"schema"},
		),
	}
	m.timeMin.Store(^uint64(0))
	return m
}

// Register registers the Prometheus collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns the Prometheus collectors backing m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.validations, m.issues, m.duration}
}

// RecordValidation records one validation of schemaName. report is the
// outcome; nil or empty means the input was valid.
func (m *Metrics) RecordValidation(schemaName string, duration time.Duration, report *issue.Report) {
	valid := report.Empty()
	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are non-negative

	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}
	m.timeTotal.Add(ns)
	for {
		old := m.timeMin.Load()
		if ns >= old || m.timeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.timeMax.Load()
		if ns <= old || m.timeMax.CompareAndSwap(old, ns) {
			break
		}
	}

	sm := m.schema(schemaName)
	sm.validations.Add(1)
	sm.totalTime.Add(ns)
	sm.issues.Add(uint64(report.Len())) //nolint:gosec // lengths are non-negative

	result := "invalid"
	if valid {
		sm.valid.Add(1)
		result = "valid"
	}
	m.validations.WithLabelValues(schemaName, result).Inc()
	m.duration.WithLabelValues(schemaName).Observe(duration.Seconds())

	if report == nil {
		return
	}
	for _, iss := range report.Issues {
		m.kindCounter(iss.Kind).Add(1)
		m.issues.WithLabelValues(schemaName, string(iss.Kind)).Inc()
	}
}

func (m *Metrics) schema(name string) *schemaMetrics {
	if v, ok := m.schemas.Load(name); ok {
		return v.(*schemaMetrics)
	}
	v, _ := m.schemas.LoadOrStore(name, &schemaMetrics{})
	return v.(*schemaMetrics)
}

func (m *Metrics) kindCounter(k issue.Kind) *atomic.Uint64 {
	if v, ok := m.issuesByKind.Load(k); ok {
		return v.(*atomic.Uint64)
	}
	v, _ := m.issuesByKind.LoadOrStore(k, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// ValidationsTotal returns the total number of validations performed.
func (m *Metrics) ValidationsTotal() uint64 {
	return m.validationsTotal.Load()
}

// ValidationsValid returns the number of validations that succeeded.
func (m *Metrics) ValidationsValid() uint64 {
	return m.validationsValid.Load()
}

// ValidationRate returns the share of successful validations (0.0 to 1.0).
func (m *Metrics) ValidationRate() float64 {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.validationsValid.Load()) / float64(total)
}

// AverageValidationTime returns the mean validation duration.
func (m *Metrics) AverageValidationTime() time.Duration {
	total := m.validationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.timeTotal.Load() / total) //nolint:gosec // nanoseconds fit in int64
}

// MinValidationTime returns the shortest validation duration.
func (m *Metrics) MinValidationTime() time.Duration {
	v := m.timeMin.Load()
	if v == ^uint64(0) {
		return 0
	}
	return time.Duration(v) //nolint:gosec // nanoseconds fit in int64
}

// MaxValidationTime returns the longest validation duration.
func (m *Metrics) MaxValidationTime() time.Duration {
	return time.Duration(m.timeMax.Load()) //nolint:gosec // nanoseconds fit in int64
}

// IssuesByKind returns the number of issues recorded for kind.
func (m *Metrics) IssuesByKind(kind issue.Kind) uint64 {
	if v, ok := m.issuesByKind.Load(kind); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

// SchemaStats holds statistics for one schema.
type SchemaStats struct {
	Name        string
	Validations uint64
	Valid       uint64
	TotalTime   time.Duration
	AvgTime     time.Duration
	Issues      uint64
}

// SchemaStats returns statistics for one schema.
func (m *Metrics) SchemaStats(name string) (SchemaStats, bool) {
	v, ok := m.schemas.Load(name)
	if !ok {
		return SchemaStats{Name: name}, false
	}
	return v.(*schemaMetrics).stats(name), true
}

// AllSchemaStats returns statistics for every schema seen, sorted by name.
func (m *Metrics) AllSchemaStats() []SchemaStats {
	var out []SchemaStats
	m.schemas.Range(func(key, value any) bool {
		out = append(out, value.(*schemaMetrics).stats(key.(string)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (sm *schemaMetrics) stats(name string) SchemaStats {
	n := sm.validations.Load()
	total := sm.totalTime.Load()
	var avg time.Duration
	if n > 0 {
		avg = time.Duration(total / n) //nolint:gosec // nanoseconds fit in int64
	}
	return SchemaStats{
		Name:        name,
		Validations: n,
		Valid:       sm.valid.Load(),
		TotalTime:   time.Duration(total), //nolint:gosec // nanoseconds fit in int64
		AvgTime:     avg,
		Issues:      sm.issues.Load(),
	}
}

// Reset clears the atomic counters. Prometheus collectors are left as they are.
func (m *Metrics) Reset() {
	m.validationsTotal.Store(0)
	m.validationsValid.Store(0)
	m.timeTotal.Store(0)
	m.timeMin.Store(^uint64(0))
	m.timeMax.Store(0)
	m.issuesByKind.Range(func(key, _ any) bool {
		m.issuesByKind.Delete(key)
		return true
	})
	m.schemas.Range(func(key, _ any) bool {
		m.schemas.Delete(key)
		return true
	})
}
