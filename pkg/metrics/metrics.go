/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes prometheus counters for the control channel and
// the sampling pipeline. All methods are safe on a nil receiver so callers
// can run without metrics wired.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeOK and OutcomeError label capture and upload counters.
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics aggregates the agent's prometheus instruments.
type Metrics struct {
	framesReceived *prometheus.CounterVec
	protocolErrors prometheus.Counter
	heartbeatsSent prometheus.Counter
	captures       *prometheus.CounterVec
	uploads        *prometheus.CounterVec
}

// New builds the instrument set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldagent_frames_received_total",
			Help: "Inbound control channel frames by encoding.",
		}, []string{"encoding"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldagent_protocol_errors_total",
			Help: "Inbound frames dropped because they could not be decoded.",
		}),
		heartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldagent_heartbeats_sent_total",
			Help: "Keep-alive frames written to the control channel.",
		}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldagent_captures_total",
			Help: "Completed capture attempts by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldagent_uploads_total",
			Help: "Completed upload attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.framesReceived, m.protocolErrors, m.heartbeatsSent, m.captures, m.uploads)

	return m
}

func (m *Metrics) FrameReceived(encoding string) {
	if m == nil {
		return
	}

	m.framesReceived.WithLabelValues(encoding).Inc()
}

func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}

	m.protocolErrors.Inc()
}

func (m *Metrics) HeartbeatSent() {
	if m == nil {
		return
	}

	m.heartbeatsSent.Inc()
}

func (m *Metrics) CaptureFinished(outcome string) {
	if m == nil {
		return
	}

	m.captures.WithLabelValues(outcome).Inc()
}

func (m *Metrics) UploadFinished(outcome string) {
	if m == nil {
		return
	}

	m.uploads.WithLabelValues(outcome).Inc()
}
