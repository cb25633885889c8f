// Copyright (C) 2025 Vireo Labs (dev@vireolabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the social
// service: live delivery counters, durable notification counters, and
// websocket session gauges. Metrics are exposed via the /metrics
// endpoint; all operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "vireo"

const fanoutSubsystem = "fanout"

// FanoutMetrics holds the counters the fan-out engine reports into.
// A nil *FanoutMetrics is valid and records nothing, so tests and
// lightweight deployments can skip metrics entirely.
type FanoutMetrics struct {
	// DeliveredTotal counts live pushes that reached a session.
	// Labels: event (statusUpdate, likeUpdated, commentAdded)
	DeliveredTotal *prometheus.CounterVec

	// DroppedTotal counts pushes skipped because the identity had no
	// live session, plus transport write failures.
	// Labels: event, reason (offline, write_failed)
	DroppedTotal *prometheus.CounterVec

	// NotificationsTotal counts durable notification records persisted.
	// Labels: type (connectionAccepted, like, comment)
	NotificationsTotal *prometheus.CounterVec

	// EventsTotal counts domain events consumed by the engine.
	// Labels: kind
	EventsTotal *prometheus.CounterVec

	// ActiveSessions gauges currently registered live sessions.
	ActiveSessions prometheus.Gauge
}

// NewFanoutMetrics registers and returns the fan-out metric set.
// Call once per process; duplicate registration panics by promauto
// convention.
func NewFanoutMetrics() *FanoutMetrics {
	return &FanoutMetrics{
		DeliveredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: fanoutSubsystem,
			Name:      "delivered_total",
			Help:      "Live events delivered to a session.",
		}, []string{"event"}),
		DroppedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: fanoutSubsystem,
			Name:      "dropped_total",
			Help:      "Live events not delivered, by reason.",
		}, []string{"event", "reason"}),
		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: fanoutSubsystem,
			Name:      "notifications_total",
			Help:      "Durable notification records persisted.",
		}, []string{"type"}),
		EventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: fanoutSubsystem,
			Name:      "events_total",
			Help:      "Domain events consumed by the fan-out engine.",
		}, []string{"kind"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "presence",
			Name:      "active_sessions",
			Help:      "Live websocket sessions currently registered.",
		}),
	}
}

// Delivered records a successful live push. Safe on nil.
func (m *FanoutMetrics) Delivered(event string) {
	if m == nil {
		return
	}
	m.DeliveredTotal.WithLabelValues(event).Inc()
}

// Dropped records a skipped or failed live push. Safe on nil.
func (m *FanoutMetrics) Dropped(event, reason string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(event, reason).Inc()
}

// NotificationPersisted records a durable record write. Safe on nil.
func (m *FanoutMetrics) NotificationPersisted(typ string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(typ).Inc()
}

// EventConsumed records one domain event entering the engine. Safe on nil.
func (m *FanoutMetrics) EventConsumed(kind string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind).Inc()
}

// SessionOpened / SessionClosed adjust the live session gauge. Safe on nil.
func (m *FanoutMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *FanoutMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
