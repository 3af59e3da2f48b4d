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

package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedCaptureProducesSamples(t *testing.T) {
	s := NewSimulatedAccelerometer()

	started := false
	sample, err := s.Capture(context.Background(), 150*time.Millisecond, 100, func() { started = true })
	require.NoError(t, err)
	require.NotNil(t, sample)

	assert.True(t, started)
	assert.False(t, sample.Empty())
	assert.Len(t, sample.IntervalsMS, len(sample.Values))

	for _, v := range sample.Values {
		assert.Len(t, v, 3)
	}
}

func TestSimulatedCaptureUnsupportedFrequency(t *testing.T) {
	s := NewSimulatedAccelerometer()

	_, err := s.Capture(context.Background(), 50*time.Millisecond, 44100, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnsupportedFrequency)
}

func TestSimulatedCaptureContextCancel(t *testing.T) {
	s := NewSimulatedAccelerometer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Capture(ctx, time.Second, 100, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedPermissionAlwaysGranted(t *testing.T) {
	s := NewSimulatedAccelerometer()

	granted, err := s.CheckPermission(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, granted)
}
