// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scoreledger"

// Metrics groups every collector; each instance owns its registry so tests can create many
type Metrics struct {
	registry *prometheus.Registry

	MatchesRecorded  *prometheus.CounterVec
	PointsCredited   prometheus.Counter
	CoinsRedeemed    prometheus.Counter
	ReferralOutcomes *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	ClickTasks       *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MatchesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_recorded_total",
			Help:      "Accepted match records by status.",
		}, []string{"status"}),
		PointsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_credited_total",
			Help:      "Points credited from completed matches.",
		}),
		CoinsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coins_redeemed_total",
			Help:      "Coins issued through point redemption.",
		}),
		ReferralOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_outcomes_total",
			Help:      "Referral submissions by internal outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_cache_lookups_total",
			Help:      "Leaderboard cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		ClickTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_click_tasks_total",
			Help:      "Referral click tasks by result (processed, duplicate, failed, dropped).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MatchesRecorded,
		m.PointsCredited,
		m.CoinsRedeemed,
		m.ReferralOutcomes,
		m.CacheLookups,
		m.ClickTasks,
	)
	return m
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
