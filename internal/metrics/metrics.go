// Package metrics holds the prometheus collectors exported by the runtime.
//
// Every method is safe to call on a nil *Metrics so components can take an
// optional collector set without guarding each call site.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rover"

// Metrics groups the collectors for the bus, loader, cache and plugins.
type Metrics struct {
	registry *prometheus.Registry

	signalsEmitted *prometheus.CounterVec
	handlerCalls   *prometheus.CounterVec
	handlerErrors  *prometheus.CounterVec
	signalsStopped *prometheus.CounterVec
	loaderSteps    prometheus.Counter
	tasksDone      prometheus.Counter
	tasksFailed    prometheus.Counter
	queueLength    prometheus.Gauge
	cacheEntries   prometheus.Gauge
	cacheEvictions prometheus.Counter
	pluginsLoaded  prometheus.Gauge
	loopIterations prometheus.Counter
}

// New creates a collector set registered on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		signalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_emitted_total",
			Help:      "Signals emitted with at least one binding.",
		}, []string{"signal"}),
		handlerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_handler_calls_total",
			Help:      "Signal handler invocations.",
		}, []string{"signal"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_handler_errors_total",
			Help:      "Signal handlers that returned an error or panicked.",
		}, []string{"signal"}),
		signalsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_stopped_total",
			Help:      "Emissions halted by a handler.",
		}, []string{"signal"}),
		loaderSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "steps_total",
			Help:      "Task steps executed by the loader.",
		}),
		tasksDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "tasks_completed_total",
			Help:      "Tasks that finished.",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "tasks_failed_total",
			Help:      "Tasks dropped after an error.",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "queue_length",
			Help:      "Tasks waiting in the loader queue.",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Directories held by the cache.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Directories evicted by garbage collection.",
		}),
		pluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plugins",
			Name:      "installed",
			Help:      "Installed plugins.",
		}),
		loopIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loop_iterations_total",
			Help:      "Main loop iterations.",
		}),
	}
	m.registry.MustRegister(
		m.signalsEmitted, m.handlerCalls, m.handlerErrors, m.signalsStopped,
		m.loaderSteps, m.tasksDone, m.tasksFailed, m.queueLength,
		m.cacheEntries, m.cacheEvictions, m.pluginsLoaded, m.loopIterations,
	)
	return m
}

// Registry returns the registry holding every rover collector.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SignalEmitted counts an emission of name.
func (m *Metrics) SignalEmitted(name string) {
	if m == nil {
		return
	}
	m.signalsEmitted.WithLabelValues(name).Inc()
}

// HandlerCalled counts a handler invocation for name.
func (m *Metrics) HandlerCalled(name string) {
	if m == nil {
		return
	}
	m.handlerCalls.WithLabelValues(name).Inc()
}

// HandlerFailed counts a failed handler for name.
func (m *Metrics) HandlerFailed(name string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(name).Inc()
}

// SignalStopped counts a halted emission of name.
func (m *Metrics) SignalStopped(name string) {
	if m == nil {
		return
	}
	m.signalsStopped.WithLabelValues(name).Inc()
}

// LoaderStep counts one task step.
func (m *Metrics) LoaderStep() {
	if m == nil {
		return
	}
	m.loaderSteps.Inc()
}

// TaskCompleted counts a finished task.
func (m *Metrics) TaskCompleted() {
	if m == nil {
		return
	}
	m.tasksDone.Inc()
}

// TaskFailed counts a failed task.
func (m *Metrics) TaskFailed() {
	if m == nil {
		return
	}
	m.tasksFailed.Inc()
}

// SetQueueLength records the loader queue length.
func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.queueLength.Set(float64(n))
}

// SetCacheEntries records the number of cached directories.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// CacheEvicted counts n evicted directories.
func (m *Metrics) CacheEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

// SetPluginsInstalled records the number of installed plugins.
func (m *Metrics) SetPluginsInstalled(n int) {
	if m == nil {
		return
	}
	m.pluginsLoaded.Set(float64(n))
}

// LoopIteration counts one main loop pass.
func (m *Metrics) LoopIteration() {
	if m == nil {
		return
	}
	m.loopIterations.Inc()
}

// Summary flattens counters and gauges into name -> value, summing
// labelled series. It backs the debug shutdown report.
func (m *Metrics) Summary() (map[string]float64, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var total float64
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
		out[mf.GetName()] = total
	}
	return out, nil
}

// SummaryKeys returns the summary names sorted, for stable log output.
func SummaryKeys(summary map[string]float64) []string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
