package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklog_links_created_total",
		Help: "Links created, by shortening mode.",
	}, []string{"mode"})

	CodeCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linklog_code_collisions_total",
		Help: "Generated codes that collided with an existing link.",
	})

	VisitsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklog_visits_recorded_total",
		Help: "Visits inserted at redirect time, by response kind (redirect, interstitial, error).",
	}, []string{"kind"})

	ClientReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklog_client_reports_total",
		Help: "Client callbacks, by outcome (applied, ignored).",
	}, []string{"outcome"})

	GeoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklog_geo_lookups_total",
		Help: "Geolocation lookups, by provider and result.",
	}, []string{"provider", "result"})

	GeoLookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linklog_geo_lookup_duration_seconds",
		Help:    "Latency of a single geolocation provider call.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"provider"})

	KeepalivePings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linklog_keepalive_pings_total",
		Help: "Keepalive pings, by result (ok, status, error).",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
