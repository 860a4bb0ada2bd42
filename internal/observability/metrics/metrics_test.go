package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBotMetricsObserve(t *testing.T) {
	m := NewBotMetrics(prometheus.NewRegistry())
	m.ObserveInbound("appointment_intent")
	m.ObserveReply("sent")
	m.ObserveBooking()
	m.ObserveCampaignSend("failed")
	m.ObserveWebhookLatency("message", 0.25)
	m.ObserveReactivation()
}

func TestBotMetricsNilSafe(t *testing.T) {
	var m *BotMetrics
	m.ObserveInbound("no_match")
	m.ObserveReply("failed")
	m.ObserveBooking()
	m.ObserveCampaignSend("sent")
	m.ObserveWebhookLatency("status", 0.1)
	m.ObserveReactivation()
}
