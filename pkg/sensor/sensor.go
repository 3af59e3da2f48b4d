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

// Package sensor defines the capability contract implemented by sensor
// drivers and a named registry the capture pipeline resolves sensors from.
package sensor

import (
	"context"
	"time"

	"github.com/carverauto/fieldagent/pkg/models"
)

// Capability is the contract a sensor driver must satisfy. Drivers own
// sample buffering and must stop collecting deterministically when the
// capture duration elapses; the pipeline assumes no particular cadence.
type Capability interface {
	// HasCapability reports whether the sensor is present on this device.
	HasCapability() bool

	// Properties describes the sensor for capability advertisement.
	Properties() models.SensorProperties

	// CheckPermission reports whether a live permission grant exists.
	// userInitiated is true when the check follows an explicit user action
	// and the platform may show its own prompt.
	CheckPermission(ctx context.Context, userInitiated bool) (bool, error)

	// Capture records for exactly the given duration at the requested
	// frequency, invoking onStart once collection begins. It fails with a
	// descriptive error on an unsupported frequency or a missing grant.
	Capture(ctx context.Context, length time.Duration, frequencyHz float64, onStart func()) (*models.CapturedSample, error)
}
