// Package metrics exports resolution counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/deeplink/internal/route"
)

const namespace = "deeplink"

// Recorder counts parse outcomes. It implements deeplink.Observer.
//
// Each Recorder owns its registry so several can coexist in one process
// (tests, multiple servers) without collector conflicts.
type Recorder struct {
	registry   *prometheus.Registry
	matches    *prometheus.CounterVec
	misses     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	builds     *prometheus.CounterVec
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "URLs resolved to a route.",
		}, []string{"surface", "route"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "URLs no route accepted.",
		}, []string{"surface"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_rejections_total",
			Help:      "Candidate patterns dropped after their path matched.",
		}, []string{"surface", "route", "reason"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Links built from parameters, by outcome.",
		}, []string{"route", "outcome"}),
	}
	r.registry.MustRegister(r.matches, r.misses, r.rejections, r.builds)
	return r
}

// Matched implements deeplink.Observer.
func (r *Recorder) Matched(s route.Surface, name route.Name) {
	r.matches.WithLabelValues(string(s), string(name)).Inc()
}

// Unmatched implements deeplink.Observer.
func (r *Recorder) Unmatched(s route.Surface) {
	r.misses.WithLabelValues(string(s)).Inc()
}

// Rejected implements deeplink.Observer.
func (r *Recorder) Rejected(rej route.Rejection) {
	r.rejections.WithLabelValues(string(rej.Surface), string(rej.Route), string(rej.Reason)).Inc()
}

// Built records the outcome of building a link. A nil err counts as "ok",
// otherwise the error code is used.
func (r *Recorder) Built(name route.Name, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(route.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	r.builds.WithLabelValues(string(name), outcome).Inc()
}

// Registry returns the registry holding the counters.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the /metrics scrape endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
