package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the Prometheus collectors the weather service updates.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	ForecastDays     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_provider_requests_total",
			Help: "Provider calls by provider, kind and result.",
		}, []string{"provider", "kind", "result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_cache_lookups_total",
			Help: "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		ForecastDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weather_forecast_days",
			Help:    "Number of day summaries returned per forecast request.",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.ProviderRequests, m.CacheLookups, m.ForecastDays)
	}
	return m
}

func (m *Metrics) provider(name, kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ProviderRequests.WithLabelValues(name, kind, result).Inc()
}

func (m *Metrics) cache(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}
