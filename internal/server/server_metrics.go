package server

import "github.com/prometheus/client_golang/prometheus"

type promMetrics struct {
	lookups    prometheus.Counter
	lookupErrs prometheus.Counter
	duration   prometheus.Histogram
}

func newPromMetrics(labels prometheus.Labels) *promMetrics {
	return &promMetrics{
		lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "resolved_lookups_total",
			Help:        "Total number of getaddrinfo-style lookups served",
			ConstLabels: labels,
		}),
		lookupErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "resolved_lookup_errors_total",
			Help:        "Total number of lookups that returned an error",
			ConstLabels: labels,
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "resolved_lookup_duration_seconds",
			Help:        "Lookup handler latency in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
}

func (m *promMetrics) Describe(d chan<- *prometheus.Desc) {
	d <- m.lookups.Desc()
	d <- m.lookupErrs.Desc()
	m.duration.Describe(d)
}

func (m *promMetrics) Collect(c chan<- prometheus.Metric) {
	m.lookups.Collect(c)
	m.lookupErrs.Collect(c)
	m.duration.Collect(c)
}

func (m *promMetrics) observeLookup(seconds float64, err error) {
	m.lookups.Inc()
	if err != nil {
		m.lookupErrs.Inc()
	}
	m.duration.Observe(seconds)
}
