package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cirgen_parsing_seconds",
		Help:    "Time spent parsing a header file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cirgen_stage_seconds",
		Help:    "Time spent in one build stage (translate, infer, write, store).",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	PassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cirgen_inference_pass_seconds",
		Help:    "Time spent in one pattern inference pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})

	PatternsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cirgen_patterns_total",
		Help: "Total number of pattern tags added by inference, by pass.",
	}, []string{"pass"})

	UnknownTypesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cirgen_unknown_types_total",
		Help: "Total number of type spellings that resolved to unknown.",
	})

	DroppedDeclarationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cirgen_dropped_declarations_total",
		Help: "Total number of declarations dropped during translation.",
	}, []string{"reason"})

	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cirgen_builds_total",
		Help: "Total number of module builds, by result (built, cached, failed).",
	}, []string{"result"})

	ModuleFunctions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cirgen_module_functions",
		Help: "Number of functions in the last build of a module.",
	}, []string{"module"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cirgen_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cirgen_watcher_throttled_total",
		Help: "Total number of rebuild batches delayed by the rebuild rate limit.",
	})
)
