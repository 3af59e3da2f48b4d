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

// Package session implements the hello/request/status protocol and the
// sampling-orchestration state machine. It exclusively owns the session
// state and the single active sample request.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carverauto/fieldagent/pkg/capture"
	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/metrics"
	"github.com/carverauto/fieldagent/pkg/models"
)

const payloadVersion = "v1"

// ChannelControl is what the protocol needs from the connection manager:
// sending frames, degrading the connection on a refused hello and recovering
// it on a later accepted one.
type ChannelControl interface {
	Send(ctx context.Context, env *Envelope) error
	Degrade(reason string)
	Recover()
}

// Sampler runs one capture cycle. Implemented by capture.Coordinator.
type Sampler interface {
	Run(ctx context.Context, req *models.SampleRequest, hooks capture.Hooks) (*models.CapturedSample, error)
	Grant(granted bool)
}

// Signer populates the signature field of an upload payload.
type Signer interface {
	SignPayload(ctx context.Context, key string, payload *models.SignedPayload) error
}

// Uploader ships a signed payload to the ingestion endpoint.
type Uploader interface {
	Upload(ctx context.Context, path, label string, payload *models.SignedPayload) error
}

// Config wires a Protocol's collaborators.
type Config struct {
	Device      models.DeviceDescriptor
	Credentials models.SessionCredentials
	Channel     ChannelControl
	Sampler     Sampler
	Signer      Signer
	Uploader    Uploader
	Events      Events
	Metrics     *metrics.Metrics
	Logger      logger.Logger
}

// Protocol drives the session state machine. Exactly one sampling cycle is
// in flight at a time; a request arriving while not idle is rejected with an
// explicit busy failure and the in-flight cycle is untouched.
type Protocol struct {
	device   models.DeviceDescriptor
	creds    models.SessionCredentials
	channel  ChannelControl
	sampler  Sampler
	signer   Signer
	uploader Uploader
	events   Events
	metrics  *metrics.Metrics
	logger   logger.Logger

	mu     sync.Mutex
	state  models.SessionState
	active *models.SampleRequest

	// established tracks whether the last hello-ack accepted the session.
	// It gates request processing independently of the cycle states, so a
	// refused ack arriving mid-cycle is not forgotten when the cycle ends.
	established bool

	// wg tracks the in-flight cycle goroutine so tests and shutdown can
	// wait for it.
	wg sync.WaitGroup
}

// NewProtocol creates a protocol in the AwaitingHello state.
func NewProtocol(cfg Config) *Protocol {
	events := cfg.Events
	if events == nil {
		events = NopEvents{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Protocol{
		device:   cfg.Device,
		creds:    cfg.Credentials,
		channel:  cfg.Channel,
		sampler:  cfg.Sampler,
		signer:   cfg.Signer,
		uploader: cfg.Uploader,
		events:   events,
		metrics:  cfg.Metrics,
		logger:   log.WithComponent("session"),
		state:    models.SessionAwaitingHello,
	}
}

// AttachChannel wires the connection manager after construction. The manager
// needs the protocol as its frame handler and vice versa, so one side is
// attached late. Must be called before any frame arrives.
func (p *Protocol) AttachChannel(channel ChannelControl) {
	p.channel = channel
}

// State returns the current session state.
func (p *Protocol) State() models.SessionState {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// HelloEnvelope builds the hello frame sent when the channel opens.
func (p *Protocol) HelloEnvelope() *Envelope {
	return NewHelloEnvelope(p.device, p.creds)
}

// GrantPermission forwards the user's permission decision to a pending
// capture cycle. Invoked by the external UI collaborator.
func (p *Protocol) GrantPermission(granted bool) {
	p.sampler.Grant(granted)
}

// Wait blocks until any in-flight sampling cycle completes.
func (p *Protocol) Wait() {
	p.wg.Wait()
}

// HandleEnvelope processes one decoded inbound frame. The context must be
// connection-scoped: a sampling cycle started by a frame outlives the frame
// itself. Frames are handled in arrival order.
func (p *Protocol) HandleEnvelope(ctx context.Context, env *Envelope) {
	switch {
	case env.HelloAck != nil:
		p.handleHelloAck(*env.HelloAck)
	case env.SampleRequest != nil:
		p.handleSampleRequest(ctx, *env.SampleRequest)
	default:
		// Device-to-server tags arriving inbound are a peer bug, not a
		// session error. Drop them.
		p.logger.Debug().Str("tag", env.Tag()).Msg("Ignoring unexpected inbound frame")
	}
}

func (p *Protocol) handleHelloAck(ack HelloAck) {
	if !ack.Connected {
		reason := ack.Error
		if reason == "" {
			reason = "server refused hello"
		}

		p.mu.Lock()
		p.established = false
		// An in-flight cycle keeps its state and finishes reporting; the
		// gate re-closes when it completes.
		if p.active == nil {
			p.state = models.SessionAwaitingHello
		}
		p.mu.Unlock()

		p.logger.Warn().Str("reason", reason).Msg("Hello refused, connection degraded")
		p.channel.Degrade(reason)
		p.events.Error(reason)

		return
	}

	p.mu.Lock()
	p.established = true
	if p.active == nil {
		p.state = models.SessionIdle
	}
	p.mu.Unlock()

	// A later successful ack also recovers a degraded session.
	p.channel.Recover()

	p.logger.Info().Msg("Session established")
	p.events.Connected()
}

func (p *Protocol) handleSampleRequest(ctx context.Context, req models.SampleRequest) {
	p.mu.Lock()

	if !p.established {
		p.mu.Unlock()
		p.logger.Warn().Str("label", req.Label).Msg("Dropping sample request before session is established")

		return
	}

	if p.state != models.SessionIdle {
		p.mu.Unlock()
		p.logger.Warn().
			Str("label", req.Label).
			Msg("Rejecting overlapping sample request")
		p.sendEnvelope(ctx, failedEnvelope("sampling already in progress"))

		return
	}

	if req.HMACKey == "" {
		p.mu.Unlock()

		reason := "sample request is missing an hmac key"
		p.logger.Warn().Str("label", req.Label).Msg("Rejecting unsigned sample request")
		p.sendEnvelope(ctx, failedEnvelope(reason))
		p.events.SamplingError(reason)

		return
	}

	p.state = models.SessionAwaitingPermission
	p.active = &req
	p.mu.Unlock()

	p.sendEnvelope(ctx, receivedEnvelope())

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.runCycle(ctx, &req)
	}()
}

// runCycle executes one sampling cycle end to end. Statuses are emitted in
// the fixed order received → started → (uploading → finished | failed).
func (p *Protocol) runCycle(ctx context.Context, req *models.SampleRequest) {
	sample, err := p.sampler.Run(ctx, req, capture.Hooks{
		OnStart: func() {
			p.setState(models.SessionSampling)
			p.sendEnvelope(ctx, startedEnvelope())
			p.events.SamplingStarted(req.LengthMS)
		},
	})
	if err != nil {
		p.metrics.CaptureFinished(metrics.OutcomeError)
		p.finishWithError(ctx, err)

		return
	}

	p.metrics.CaptureFinished(metrics.OutcomeOK)

	p.setState(models.SessionUploading)
	p.sendEnvelope(ctx, uploadingEnvelope())
	p.events.SamplingUploading()

	payload := p.buildPayload(req, sample)

	p.events.SamplingProcessing()

	if err := p.signer.SignPayload(ctx, req.HMACKey, payload); err != nil {
		p.finishWithError(ctx, models.NewSigningError(err))

		return
	}

	if err := p.uploader.Upload(ctx, req.Path, req.Label, payload); err != nil {
		p.metrics.UploadFinished(metrics.OutcomeError)
		p.finishWithError(ctx, models.NewUploadError(err))

		return
	}

	p.metrics.UploadFinished(metrics.OutcomeOK)

	p.sendEnvelope(ctx, finishedEnvelope())
	p.events.SamplingFinished()

	p.logger.Info().Str("label", req.Label).Msg("Sampling cycle finished")
	p.finish()
}

// finishWithError reports a request-scoped failure to the peer and the UI,
// then returns the session to idle. The control channel stays open.
func (p *Protocol) finishWithError(ctx context.Context, err error) {
	reason := err.Error()

	var reqErr *models.RequestError
	if errors.As(err, &reqErr) {
		reason = reqErr.FailureReason()
	}

	p.logger.Warn().Err(err).Msg("Sampling cycle failed")
	p.sendEnvelope(ctx, failedEnvelope(reason))
	p.events.SamplingError(reason)
	p.finish()
}

// finish ends the cycle. The session only returns to Idle while it is still
// established; a refusal that arrived mid-cycle leaves the gate closed.
func (p *Protocol) finish() {
	p.mu.Lock()
	if p.established {
		p.state = models.SessionIdle
	} else {
		p.state = models.SessionAwaitingHello
	}
	p.active = nil
	p.mu.Unlock()
}

func (p *Protocol) setState(state models.SessionState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Protocol) sendEnvelope(ctx context.Context, env *Envelope) {
	if err := p.channel.Send(ctx, env); err != nil {
		p.logger.Error().Err(err).Str("tag", env.Tag()).Msg("Failed to send frame")
	}
}

func (p *Protocol) buildPayload(req *models.SampleRequest, sample *models.CapturedSample) *models.SignedPayload {
	intervalMS := req.IntervalMS
	if len(sample.Raw) > 0 && sample.IntervalMS > 0 {
		intervalMS = sample.IntervalMS
	}

	sensors := p.device.Sensors

	for _, s := range p.device.Sensors {
		if s.Name == req.Sensor {
			sensors = []models.SensorDescriptor{s}
			break
		}
	}

	return &models.SignedPayload{
		Protected: models.ProtectedHeader{
			Version:   payloadVersion,
			Algorithm: models.SignatureAlgHS256,
			IssuedAt:  time.Now().Unix(),
		},
		Signature: models.EmptySignature,
		Payload: models.PayloadBody{
			DeviceID:   p.device.DeviceID,
			DeviceType: p.device.DeviceType,
			IntervalMS: intervalMS,
			Sensors:    sensors,
			Values:     sample.Values,
			Raw:        sample.Raw,
		},
	}
}
