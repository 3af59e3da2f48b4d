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

// Package capture turns a sample request into a captured sample: it resolves
// the sensor, negotiates a user-permission grant, runs the bounded-duration
// recording and validates the result.
package capture

import (
	"context"
	"sync"
	"time"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/models"
	"github.com/carverauto/fieldagent/pkg/sensor"
)

const (
	defaultPermissionWait = 60 * time.Second

	// captureGrace bounds how long past the requested duration a stuck
	// capability may run before the pipeline gives up on it.
	captureGrace = 2 * time.Second
)

// Hooks lets the session protocol observe pipeline milestones without the
// coordinator touching session state directly.
type Hooks struct {
	// OnAwaitingPermission fires when a user grant is required before
	// capture can begin.
	OnAwaitingPermission func()

	// OnStart fires once the capability begins collecting.
	OnStart func()
}

// Coordinator drives the permission → timed-capture → validation pipeline
// for one request at a time.
type Coordinator struct {
	registry       sensor.Registry
	permissionWait time.Duration
	logger         logger.Logger

	mu    sync.Mutex
	grant chan bool
}

// NewCoordinator creates a coordinator over the given sensor registry.
// A non-positive permissionWait falls back to the 60 s default.
func NewCoordinator(registry sensor.Registry, permissionWait time.Duration, log logger.Logger) *Coordinator {
	if permissionWait <= 0 {
		permissionWait = defaultPermissionWait
	}

	return &Coordinator{
		registry:       registry,
		permissionWait: permissionWait,
		logger:         log.WithComponent("capture"),
	}
}

// Grant resolves a pending permission wait with the user's decision. It is
// invoked by the external UI collaborator and is a no-op when no wait is
// active or a decision is already pending.
func (c *Coordinator) Grant(granted bool) {
	c.mu.Lock()
	ch := c.grant
	c.mu.Unlock()

	if ch == nil {
		return
	}

	select {
	case ch <- granted:
	default:
	}
}

// Run executes one full capture cycle and returns the captured sample. All
// failures are request-scoped *models.RequestError values.
func (c *Coordinator) Run(ctx context.Context, req *models.SampleRequest, hooks Hooks) (*models.CapturedSample, error) {
	capability, err := c.registry.Get(req.Sensor)
	if err != nil {
		return nil, models.NewCaptureError("unknown sensor", err)
	}

	if err := c.ensurePermission(ctx, capability, hooks); err != nil {
		return nil, err
	}

	length := time.Duration(req.LengthMS) * time.Millisecond

	c.logger.Info().
		Str("sensor", req.Sensor).
		Str("label", req.Label).
		Dur("length", length).
		Float64("frequency_hz", req.FrequencyHz()).
		Msg("Starting capture")

	// Once capture has started nothing cancels it short of its duration;
	// the outer deadline only guards against a capability that never
	// returns.
	captureCtx, cancel := context.WithTimeout(ctx, length+captureGrace)
	defer cancel()

	sample, err := capability.Capture(captureCtx, length, req.FrequencyHz(), hooks.OnStart)
	if err != nil {
		return nil, models.NewCaptureError("capture failed", err)
	}

	if sample.Empty() {
		return nil, models.NewCaptureError("no measurements captured", nil)
	}

	c.logger.Info().
		Str("sensor", req.Sensor).
		Int("measurements", len(sample.Values)).
		Int("raw_bytes", len(sample.Raw)).
		Msg("Capture complete")

	return sample, nil
}

// ensurePermission returns once a live permission grant exists. When the
// capability lacks one, it waits for the UI collaborator's Grant call, raced
// against the permission timeout. This is the only cancellable wait in the
// sampling cycle.
func (c *Coordinator) ensurePermission(ctx context.Context, capability sensor.Capability, hooks Hooks) error {
	granted, err := capability.CheckPermission(ctx, false)
	if err != nil {
		return &models.RequestError{Category: models.CategoryPermission, Reason: "permission check failed", Err: err}
	}

	if granted {
		return nil
	}

	ch := make(chan bool, 1)

	c.mu.Lock()
	c.grant = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.grant = nil
		c.mu.Unlock()
	}()

	if hooks.OnAwaitingPermission != nil {
		hooks.OnAwaitingPermission()
	}

	c.logger.Info().Dur("timeout", c.permissionWait).Msg("Awaiting user permission")

	timer := time.NewTimer(c.permissionWait)
	defer timer.Stop()

	select {
	case userGranted := <-ch:
		if !userGranted {
			return models.NewPermissionError("denied")
		}
	case <-timer.C:
		return models.NewPermissionError("timeout")
	case <-ctx.Done():
		return &models.RequestError{Category: models.CategoryPermission, Reason: "cancelled", Err: ctx.Err()}
	}

	// The user said yes; confirm the platform actually granted access.
	granted, err = capability.CheckPermission(ctx, true)
	if err != nil {
		return &models.RequestError{Category: models.CategoryPermission, Reason: "permission check failed", Err: err}
	}

	if !granted {
		return models.NewPermissionError("denied")
	}

	return nil
}
