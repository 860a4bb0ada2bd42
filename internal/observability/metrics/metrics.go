package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the conversational flows.
type BotMetrics struct {
	inboundTotal    *prometheus.CounterVec
	repliesTotal    *prometheus.CounterVec
	bookingsTotal   prometheus.Counter
	campaignSends   *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
	reactivateTotal prometheus.Counter
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optica",
			Subsystem: "bot",
			Name:      "inbound_total",
			Help:      "Total inbound WhatsApp messages by classified intent",
		}, []string{"intent"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optica",
			Subsystem: "bot",
			Name:      "replies_total",
			Help:      "Total bot replies by delivery status",
		}, []string{"status"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optica",
			Subsystem: "bot",
			Name:      "bookings_total",
			Help:      "Appointments confirmed automatically by the bot",
		}),
		campaignSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optica",
			Subsystem: "campaigns",
			Name:      "sends_total",
			Help:      "Campaign messages sent by delivery status",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "optica",
			Subsystem: "bot",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		reactivateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optica",
			Subsystem: "bot",
			Name:      "reactivations_total",
			Help:      "Bots reactivated after the agent silence window",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.bookingsTotal, m.campaignSends, m.webhookLatency, m.reactivateTotal)
	return m
}

func (m *BotMetrics) ObserveInbound(intent string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(intent).Inc()
}

func (m *BotMetrics) ObserveReply(status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *BotMetrics) ObserveCampaignSend(status string) {
	if m == nil {
		return
	}
	m.campaignSends.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveWebhookLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *BotMetrics) ObserveReactivation() {
	if m == nil {
		return
	}
	m.reactivateTotal.Inc()
}
