// Package metrics exposes Prometheus counters for the marketplace flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services depend on; Collector and Noop implement it.
type Recorder interface {
	RecordPurchase(outcome string)
	RecordTokenRotation(outcome string)
	RecordLike(liked bool)
	RecordSideEffectFailure(kind string)
}

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Collector struct {
	purchases       *prometheus.CounterVec
	tokenRotations  *prometheus.CounterVec
	likes           *prometheus.CounterVec
	sideEffectFails *prometheus.CounterVec
}

// NewCollector registers the marketplace counters on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeham_purchases_total",
			Help: "Purchase attempts by outcome",
		}, []string{"outcome"}),
		tokenRotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeham_token_rotations_total",
			Help: "Refresh token rotations by outcome",
		}, []string{"outcome"}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeham_likes_total",
			Help: "Like toggles by action",
		}, []string{"action"}),
		sideEffectFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeham_side_effect_failures_total",
			Help: "Best-effort post-commit steps that failed",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.purchases, c.tokenRotations, c.likes, c.sideEffectFails)
	return c
}

func (c *Collector) RecordPurchase(outcome string) {
	c.purchases.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordTokenRotation(outcome string) {
	c.tokenRotations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLike(liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	c.likes.WithLabelValues(action).Inc()
}

func (c *Collector) RecordSideEffectFailure(kind string) {
	c.sideEffectFails.WithLabelValues(kind).Inc()
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordPurchase(string)          {}
func (Noop) RecordTokenRotation(string)     {}
func (Noop) RecordLike(bool)                {}
func (Noop) RecordSideEffectFailure(string) {}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
