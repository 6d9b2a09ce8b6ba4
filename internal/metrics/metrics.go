// Package metrics provides Prometheus metrics for the market engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// ArenaMetrics collects and exposes engine-level Prometheus metrics.
type ArenaMetrics struct {
	registry *prometheus.Registry

	BetsTotal       *prometheus.CounterVec
	BetVolume       prometheus.Counter
	OddsQueries     prometheus.Counter
	MarketsResolved prometheus.Counter
	ClaimsComputed  prometheus.Counter
	FightsCancelled prometheus.Counter
}

func New() *ArenaMetrics {
	registry := prometheus.NewRegistry()

	m := &ArenaMetrics{
		registry: registry,
		BetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_bets_total",
				Help: "Bet placement attempts by result",
			},
			[]string{"result"},
		),
		BetVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_bet_volume",
			Help: "Total accepted stake across all markets",
		}),
		OddsQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_odds_queries_total",
			Help: "Odds snapshot reads",
		}),
		MarketsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_markets_resolved_total",
			Help: "Markets flipped to resolved",
		}),
		ClaimsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_claims_computed_total",
			Help: "Settlement claims computed",
		}),
		FightsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_fights_cancelled_total",
			Help: "Stale fights cancelled by the sweep job",
		}),
	}

	registry.MustRegister(
		m.BetsTotal,
		m.BetVolume,
		m.OddsQueries,
		m.MarketsResolved,
		m.ClaimsComputed,
		m.FightsCancelled,
	)
	return m
}

func (m *ArenaMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordBet tracks one accepted bet and its stake.
func (m *ArenaMetrics) RecordBet(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.BetsTotal.WithLabelValues("accepted").Inc()
	f, _ := amount.Float64()
	m.BetVolume.Add(f)
}

// RecordBetRejected tracks a rejected placement by error kind.
func (m *ArenaMetrics) RecordBetRejected(kind string) {
	if m == nil {
		return
	}
	m.BetsTotal.WithLabelValues(kind).Inc()
}
