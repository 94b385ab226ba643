// Copyright (C) 2025, BotCipher Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for lifecycle operation counters.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// LifecycleMetrics tracks the encrypted message lifecycle. A nil
// *LifecycleMetrics is valid and records nothing, so library users without a
// metrics registry can skip wiring it.
type LifecycleMetrics struct {
	messagesCreatedCount *prometheus.CounterVec
	botResponseCount     *prometheus.CounterVec
	decryptionCount      *prometheus.CounterVec
	refreshLatencyMS     prometheus.Gauge
}

func NewLifecycleMetrics(registerer prometheus.Registerer) *LifecycleMetrics {
	m := LifecycleMetrics{
		messagesCreatedCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_created_count",
				Help: "Number of message creation operations by outcome",
			},
			[]string{"outcome"},
		),
		botResponseCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_response_count",
				Help: "Number of automated responder submissions by outcome",
			},
			[]string{"outcome"},
		),
		decryptionCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decryption_count",
				Help: "Number of decryption operations by outcome",
			},
			[]string{"outcome"},
		),
		refreshLatencyMS: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "refresh_latency_ms",
				Help: "Latency of the last repository refresh in milliseconds",
			},
		),
	}

	registerer.MustRegister(m.messagesCreatedCount)
	registerer.MustRegister(m.botResponseCount)
	registerer.MustRegister(m.decryptionCount)
	registerer.MustRegister(m.refreshLatencyMS)

	return &m
}

func (m *LifecycleMetrics) MessageCreated(outcome string) {
	if m == nil {
		return
	}
	m.messagesCreatedCount.WithLabelValues(outcome).Inc()
}

func (m *LifecycleMetrics) BotResponse(outcome string) {
	if m == nil {
		return
	}
	m.botResponseCount.WithLabelValues(outcome).Inc()
}

func (m *LifecycleMetrics) Decryption(outcome string) {
	if m == nil {
		return
	}
	m.decryptionCount.WithLabelValues(outcome).Inc()
}

func (m *LifecycleMetrics) ObserveRefreshLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshLatencyMS.Set(float64(d.Milliseconds()))
}
