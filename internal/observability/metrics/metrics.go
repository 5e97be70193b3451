// Package metrics exposes application-level prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the service increments.
type Metrics struct {
	webhookEvents     *prometheus.CounterVec
	magicLinksIssued  prometheus.Counter
	magicLinkRedeems  *prometheus.CounterVec
	paymentCaptures   *prometheus.CounterVec
	schedulerSweeps   *prometheus.CounterVec
	schedulerSweepErr *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultracivic_webhook_events_total",
			Help: "Stripe webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		magicLinksIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ultracivic_magic_links_issued_total",
			Help: "Magic links issued.",
		}),
		magicLinkRedeems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultracivic_magic_link_redemptions_total",
			Help: "Magic link redemption attempts by result.",
		}, []string{"result"}),
		paymentCaptures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultracivic_payment_captures_total",
			Help: "Payment capture attempts by result.",
		}, []string{"result"}),
		schedulerSweeps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultracivic_scheduler_sweep_rows_total",
			Help: "Rows removed by scheduler sweeps, by job.",
		}, []string{"job"}),
		schedulerSweepErr: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ultracivic_scheduler_sweep_errors_total",
			Help: "Scheduler sweep failures, by job.",
		}, []string{"job"}),
	}
}

func (m *Metrics) IncWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) IncMagicLinkIssued() {
	if m == nil {
		return
	}
	m.magicLinksIssued.Inc()
}

func (m *Metrics) IncMagicLinkRedeem(result string) {
	if m == nil {
		return
	}
	m.magicLinkRedeems.WithLabelValues(result).Inc()
}

func (m *Metrics) IncPaymentCapture(result string) {
	if m == nil {
		return
	}
	m.paymentCaptures.WithLabelValues(result).Inc()
}

func (m *Metrics) AddSweptRows(job string, rows int64) {
	if m == nil {
		return
	}
	m.schedulerSweeps.WithLabelValues(job).Add(float64(rows))
}

func (m *Metrics) IncSweepError(job string) {
	if m == nil {
		return
	}
	m.schedulerSweepErr.WithLabelValues(job).Inc()
}
