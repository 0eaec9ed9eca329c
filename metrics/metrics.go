// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics holds the prometheus collectors shared by the coordinator,
// the gateway and the local router. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xdiscount"

type Metrics struct {
	messagesDispatched *prometheus.CounterVec
	dispatchFailures   *prometheus.CounterVec
	feesPaid           *prometheus.CounterVec
	messagesReceived   *prometheus.CounterVec
	pendingMessages    *prometheus.GaugeVec
}

func New(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		messagesDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_dispatched_total",
				Help:      "Number of messages handed to the router",
			},
			[]string{"op", "selector"},
		),
		dispatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_failures_total",
				Help:      "Number of source operations rejected before or during dispatch",
			},
			[]string{"op", "reason"},
		),
		feesPaid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fees_paid_total",
				Help:      "Native value attached to dispatched messages",
			},
			[]string{"selector"},
		),
		messagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_received_total",
				Help:      "Number of envelopes processed by a gateway",
			},
			[]string{"op", "status"},
		),
		pendingMessages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "router_pending_messages",
				Help:      "Messages accepted by the router and not yet delivered",
			},
			[]string{"selector"},
		),
	}

	registerer.MustRegister(m.messagesDispatched)
	registerer.MustRegister(m.dispatchFailures)
	registerer.MustRegister(m.feesPaid)
	registerer.MustRegister(m.messagesReceived)
	registerer.MustRegister(m.pendingMessages)

	return &m
}

func (m *Metrics) IncDispatched(op, selector string) {
	if m == nil {
		return
	}
	m.messagesDispatched.WithLabelValues(op, selector).Inc()
}

func (m *Metrics) IncDispatchFailure(op, reason string) {
	if m == nil {
		return
	}
	m.dispatchFailures.WithLabelValues(op, reason).Inc()
}

func (m *Metrics) AddFee(selector string, fee *uint256.Int) {
	if m == nil || fee == nil {
		return
	}
	m.feesPaid.WithLabelValues(selector).Add(fee.Float64())
}

func (m *Metrics) IncReceived(op, status string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(op, status).Inc()
}

func (m *Metrics) SetPending(selector string, n int) {
	if m == nil {
		return
	}
	m.pendingMessages.WithLabelValues(selector).Set(float64(n))
}
