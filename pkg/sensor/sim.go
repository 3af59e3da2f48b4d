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
	"fmt"
	"math"
	"time"

	"github.com/carverauto/fieldagent/pkg/models"
)

const (
	simSensorName    = "accelerometer"
	simMaxLengthMS   = 300000
	freqTolerance    = 0.01
	simWaveFrequency = 1.5 // Hz of the generated sine motion
)

var errUnsupportedFrequency = fmt.Errorf("unsupported sampling frequency")

// SimulatedAccelerometer is a built-in triaxial accelerometer that generates
// a sine wave. It lets the agent run end-to-end on hosts without real sensor
// hardware.
type SimulatedAccelerometer struct {
	frequencies []float64
}

// NewSimulatedAccelerometer creates the simulated driver.
func NewSimulatedAccelerometer() *SimulatedAccelerometer {
	return &SimulatedAccelerometer{
		frequencies: []float64{62.5, 100},
	}
}

func (*SimulatedAccelerometer) HasCapability() bool { return true }

func (s *SimulatedAccelerometer) Properties() models.SensorProperties {
	return models.SensorProperties{
		Name:                 simSensorName,
		SupportedFrequencies: s.frequencies,
		MaxSampleLengthMS:    simMaxLengthMS,
	}
}

// CheckPermission always grants: simulated hardware needs no user consent.
func (*SimulatedAccelerometer) CheckPermission(_ context.Context, _ bool) (bool, error) {
	return true, nil
}

// Capture generates sine-wave measurement vectors for exactly the given
// duration, stopping at the deadline regardless of how many ticks fired.
func (s *SimulatedAccelerometer) Capture(
	ctx context.Context,
	length time.Duration,
	frequencyHz float64,
	onStart func(),
) (*models.CapturedSample, error) {
	if frequencyHz == 0 {
		frequencyHz = s.frequencies[0]
	}

	if !s.supports(frequencyHz) {
		return nil, fmt.Errorf("%w: %.2f Hz", errUnsupportedFrequency, frequencyHz)
	}

	interval := time.Duration(float64(time.Second) / frequencyHz)
	intervalMS := interval.Seconds() * 1000

	deadline := time.NewTimer(length)
	defer deadline.Stop()

	tick := time.NewTicker(interval)
	defer tick.Stop()

	if onStart != nil {
		onStart()
	}

	sample := &models.CapturedSample{}
	start := time.Now()

	for {
		select {
		case <-deadline.C:
			return sample, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case now := <-tick.C:
			phase := 2 * math.Pi * simWaveFrequency * now.Sub(start).Seconds()
			sample.Values = append(sample.Values, []float64{
				math.Sin(phase),
				math.Cos(phase),
				9.81,
			})
			sample.IntervalsMS = append(sample.IntervalsMS, intervalMS)
		}
	}
}

func (s *SimulatedAccelerometer) supports(frequencyHz float64) bool {
	for _, f := range s.frequencies {
		if math.Abs(f-frequencyHz) <= freqTolerance {
			return true
		}
	}

	return false
}
