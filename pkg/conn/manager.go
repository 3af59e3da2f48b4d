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

// Package conn owns the control channel: websocket lifecycle, the heartbeat
// timer and dispatch of decoded frames into the session protocol. A Manager
// is single-use; it performs no automatic reconnection and the surrounding
// system re-instantiates one to reconnect.
package conn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/metrics"
	"github.com/carverauto/fieldagent/pkg/models"
	"github.com/carverauto/fieldagent/pkg/session"
)

const (
	defaultHeartbeatInterval = 3 * time.Second

	// keepAliveFrame is the bare text frame written every heartbeat tick.
	// It is deliberately not JSON.
	keepAliveFrame = "ping"
)

// ErrNotConnected is returned by Send when the channel is not open. Sending
// on a closed channel is an explicit no-op for the caller, never a panic.
var ErrNotConnected = errors.New("control channel not connected")

// SessionHandler is what the manager needs from the session protocol.
type SessionHandler interface {
	// HandleEnvelope processes one decoded inbound frame.
	HandleEnvelope(ctx context.Context, env *session.Envelope)

	// HelloEnvelope builds the frame announcing the device after connect.
	HelloEnvelope() *session.Envelope
}

// Config holds the control channel settings.
type Config struct {
	Endpoint          string
	HeartbeatInterval time.Duration
}

// Manager maintains exactly one control channel to a fixed endpoint.
type Manager struct {
	cfg     Config
	handler SessionHandler
	events  session.Events
	metrics *metrics.Metrics
	logger  logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	status  models.ConnectionStatus
	closing bool

	writeMu       sync.Mutex
	stopHeartbeat chan struct{}
	heartbeatOnce sync.Once
	done          chan struct{}
}

// NewManager creates a manager for one session. events may be nil.
func NewManager(cfg Config, handler SessionHandler, events session.Events, m *metrics.Metrics, log logger.Logger) *Manager {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}

	if events == nil {
		events = session.NopEvents{}
	}

	return &Manager{
		cfg:           cfg,
		handler:       handler,
		events:        events,
		metrics:       m,
		logger:        log.WithComponent("conn"),
		status:        models.ConnectionStatus{State: models.ConnectionDisconnected},
		stopHeartbeat: make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Status returns the current connection state and degradation reason.
func (m *Manager) Status() models.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

// Connect opens the channel, sends the hello frame and starts the read pump
// and heartbeat timer.
func (m *Manager) Connect(ctx context.Context) error {
	m.setStatus(models.ConnectionConnecting, "")

	c, resp, err := websocket.DefaultDialer.DialContext(ctx, m.cfg.Endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http status %s)", err, resp.Status)
		}

		m.setStatus(models.ConnectionDegraded, err.Error())
		m.events.Error(err.Error())

		return fmt.Errorf("failed to open control channel: %w", err)
	}

	m.mu.Lock()
	m.conn = c
	m.status = models.ConnectionStatus{State: models.ConnectionConnected}
	m.mu.Unlock()

	m.logger.Info().Str("endpoint", m.cfg.Endpoint).Msg("Control channel connected")

	if err := m.Send(ctx, m.handler.HelloEnvelope()); err != nil {
		m.closeConn()
		m.setStatus(models.ConnectionDegraded, err.Error())

		return fmt.Errorf("failed to send hello: %w", err)
	}

	go m.heartbeatLoop()
	go m.readPump(ctx)

	return nil
}

// Send serializes the envelope as a JSON text frame and writes it. It is an
// explicit no-op returning ErrNotConnected when the socket is gone or closing.
// A degraded channel still carries frames: the socket stays open so a later
// successful hello-ack can recover the session.
func (m *Manager) Send(_ context.Context, env *session.Envelope) error {
	m.mu.Lock()
	c := m.conn
	closing := m.closing
	m.mu.Unlock()

	if c == nil || closing {
		m.logger.Debug().Str("tag", env.Tag()).Msg("Dropping outbound frame, channel not open")

		return ErrNotConnected
	}

	data, err := env.EncodeJSON()
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

// Degrade marks the channel degraded without closing it. Used by the session
// protocol when the server refuses the hello.
func (m *Manager) Degrade(reason string) {
	m.setStatus(models.ConnectionDegraded, reason)
}

// Recover clears a degraded status after the server accepts a later hello.
// It is a no-op once the socket is gone.
func (m *Manager) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.closing {
		return
	}

	m.status = models.ConnectionStatus{State: models.ConnectionConnected}
}

// Close shuts the channel down cleanly. The heartbeat timer is cancelled
// exactly once regardless of which close path runs first.
func (m *Manager) Close() error {
	m.stopHeartbeatTimer()

	m.mu.Lock()
	m.closing = true
	c := m.conn
	m.mu.Unlock()

	if c == nil {
		return nil
	}

	// Best effort: tell the peer we are going away.
	m.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	m.writeMu.Unlock()

	err := c.Close()

	m.setStatus(models.ConnectionDisconnected, "")
	m.logger.Info().Msg("Control channel closed")

	return err
}

// Done is closed when the read pump exits, for callers that want to observe
// channel teardown.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) readPump(ctx context.Context) {
	defer close(m.done)

	for {
		messageType, data, err := m.readMessage()
		if err != nil {
			m.handleClose(err)
			return
		}

		var (
			env     *session.Envelope
			decErr  error
			encoded string
		)

		switch messageType {
		case websocket.TextMessage:
			encoded = "json"
			env, decErr = session.DecodeJSON(data)
		case websocket.BinaryMessage:
			encoded = "cbor"
			env, decErr = session.DecodeCBOR(data)
		default:
			continue
		}

		m.metrics.FrameReceived(encoded)

		if decErr != nil {
			// Protocol error: drop the frame, keep the channel open.
			m.metrics.ProtocolError()
			m.logger.Warn().
				Err(decErr).
				Str("encoding", encoded).
				Int("bytes", len(data)).
				Msg("Dropping undecodable frame")

			continue
		}

		m.handler.HandleEnvelope(ctx, env)
	}
}

func (m *Manager) readMessage() (int, []byte, error) {
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()

	if c == nil {
		return 0, nil, ErrNotConnected
	}

	return c.ReadMessage()
}

// handleClose runs when the read pump observes a closed or errored channel.
func (m *Manager) handleClose(err error) {
	m.stopHeartbeatTimer()
	m.closeConn()

	m.mu.Lock()
	closing := m.closing
	m.mu.Unlock()

	clean := closing ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)

	if clean {
		m.setStatus(models.ConnectionDisconnected, "")
		m.logger.Info().Msg("Control channel disconnected")

		return
	}

	m.setStatus(models.ConnectionDegraded, err.Error())
	m.logger.Warn().Err(err).Msg("Control channel lost")
	m.events.Error(err.Error())
}

func (m *Manager) heartbeatLoop() {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.sendKeepAlive(); err != nil {
				m.logger.Debug().Err(err).Msg("Keep-alive write failed")
				continue
			}

			m.metrics.HeartbeatSent()
		case <-m.stopHeartbeat:
			return
		}
	}
}

func (m *Manager) sendKeepAlive() error {
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()

	if c == nil {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	return c.WriteMessage(websocket.TextMessage, []byte(keepAliveFrame))
}

func (m *Manager) stopHeartbeatTimer() {
	m.heartbeatOnce.Do(func() {
		close(m.stopHeartbeat)
	})
}

func (m *Manager) closeConn() {
	m.mu.Lock()
	c := m.conn
	m.conn = nil
	m.mu.Unlock()

	if c != nil {
		_ = c.Close()
	}
}

func (m *Manager) setStatus(state models.ConnectionState, reason string) {
	m.mu.Lock()
	m.status = models.ConnectionStatus{State: state, Reason: reason}
	m.mu.Unlock()
}
