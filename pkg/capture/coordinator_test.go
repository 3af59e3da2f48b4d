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

package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/models"
	"github.com/carverauto/fieldagent/pkg/sensor"
)

// fakeCapability is a scripted sensor driver.
type fakeCapability struct {
	hasPermission    bool
	grantOnUserCheck bool
	captureSample    *models.CapturedSample
	captureErr       error

	permissionChecks atomic.Int32
	captureCalls     atomic.Int32
}

func (*fakeCapability) HasCapability() bool { return true }

func (*fakeCapability) Properties() models.SensorProperties {
	return models.SensorProperties{Name: "accelerometer", SupportedFrequencies: []float64{62.5}}
}

func (f *fakeCapability) CheckPermission(_ context.Context, userInitiated bool) (bool, error) {
	f.permissionChecks.Add(1)

	if userInitiated {
		return f.grantOnUserCheck, nil
	}

	return f.hasPermission, nil
}

func (f *fakeCapability) Capture(
	_ context.Context, _ time.Duration, _ float64, onStart func(),
) (*models.CapturedSample, error) {
	f.captureCalls.Add(1)

	if onStart != nil {
		onStart()
	}

	return f.captureSample, f.captureErr
}

func newTestCoordinator(t *testing.T, cap *fakeCapability, permissionWait time.Duration) *Coordinator {
	t.Helper()

	registry := sensor.NewRegistry()
	require.NoError(t, registry.Register("accelerometer", cap))

	return NewCoordinator(registry, permissionWait, logger.NewTestLogger())
}

func request() *models.SampleRequest {
	return &models.SampleRequest{
		Label:      "wave.1",
		LengthMS:   100,
		Path:       "/api/training/data",
		HMACKey:    "secret",
		IntervalMS: 16,
		Sensor:     "accelerometer",
	}
}

func TestRunUnknownSensor(t *testing.T) {
	c := newTestCoordinator(t, &fakeCapability{hasPermission: true}, 0)

	req := request()
	req.Sensor = "gyroscope"

	_, err := c.Run(context.Background(), req, Hooks{})
	require.Error(t, err)

	var reqErr *models.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, models.CategoryCapture, reqErr.Category)
	assert.Equal(t, "unknown sensor", reqErr.Reason)
}

func TestRunSuccessWithExistingPermission(t *testing.T) {
	cap := &fakeCapability{
		hasPermission: true,
		captureSample: &models.CapturedSample{Values: [][]float64{{1, 2, 3}}, IntervalsMS: []float64{16}},
	}
	c := newTestCoordinator(t, cap, 0)

	started := false
	sample, err := c.Run(context.Background(), request(), Hooks{OnStart: func() { started = true }})
	require.NoError(t, err)

	assert.True(t, started)
	assert.False(t, sample.Empty())
	assert.Equal(t, int32(1), cap.captureCalls.Load())
}

func TestRunPermissionTimeout(t *testing.T) {
	cap := &fakeCapability{hasPermission: false}
	c := newTestCoordinator(t, cap, 30*time.Millisecond)

	awaiting := false

	start := time.Now()
	_, err := c.Run(context.Background(), request(), Hooks{OnAwaitingPermission: func() { awaiting = true }})
	require.Error(t, err)

	var reqErr *models.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, models.CategoryPermission, reqErr.Category)
	assert.Equal(t, "timeout", reqErr.Reason)
	assert.True(t, awaiting)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, int32(0), cap.captureCalls.Load())
}

func TestRunPermissionDenied(t *testing.T) {
	cap := &fakeCapability{hasPermission: false}
	c := newTestCoordinator(t, cap, time.Second)

	done := make(chan error, 1)

	go func() {
		_, err := c.Run(context.Background(), request(), Hooks{
			OnAwaitingPermission: func() { c.Grant(false) },
		})
		done <- err
	}()

	err := <-done
	require.Error(t, err)

	var reqErr *models.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "denied", reqErr.Reason)
	assert.Equal(t, int32(0), cap.captureCalls.Load())
}

func TestRunGrantBeforeTimeoutSucceeds(t *testing.T) {
	cap := &fakeCapability{
		hasPermission:    false,
		grantOnUserCheck: true,
		captureSample:    &models.CapturedSample{Values: [][]float64{{1, 2, 3}}, IntervalsMS: []float64{16}},
	}
	c := newTestCoordinator(t, cap, 200*time.Millisecond)

	done := make(chan error, 1)

	go func() {
		_, err := c.Run(context.Background(), request(), Hooks{
			OnAwaitingPermission: func() {
				// Grant arrives well inside the window.
				time.AfterFunc(20*time.Millisecond, func() { c.Grant(true) })
			},
		})
		done <- err
	}()

	require.NoError(t, <-done)
	assert.Equal(t, int32(1), cap.captureCalls.Load())
}

func TestRunZeroMeasurements(t *testing.T) {
	cap := &fakeCapability{
		hasPermission: true,
		captureSample: &models.CapturedSample{},
	}
	c := newTestCoordinator(t, cap, 0)

	_, err := c.Run(context.Background(), request(), Hooks{})
	require.Error(t, err)

	var reqErr *models.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, models.CategoryCapture, reqErr.Category)
	assert.Equal(t, "no measurements captured", reqErr.Reason)
}

func TestRunCaptureFailure(t *testing.T) {
	cap := &fakeCapability{
		hasPermission: true,
		captureErr:    errors.New("unsupported sampling frequency: 42.00 Hz"),
	}
	c := newTestCoordinator(t, cap, 0)

	_, err := c.Run(context.Background(), request(), Hooks{})
	require.Error(t, err)

	var reqErr *models.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, models.CategoryCapture, reqErr.Category)
	assert.Contains(t, reqErr.FailureReason(), "unsupported sampling frequency")
}

func TestGrantWithoutActiveWaitIsNoop(t *testing.T) {
	c := newTestCoordinator(t, &fakeCapability{hasPermission: true}, 0)

	c.Grant(true)
	c.Grant(false)
}
