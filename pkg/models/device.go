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

// Package models contains the shared domain types for the fieldagent:
// device descriptors, sample requests, captured samples and signed payloads.
package models

// DeviceDescriptor identifies the device and advertises its sensing
// capabilities in the hello frame. Immutable once the session starts.
type DeviceDescriptor struct {
	DeviceID   string             `json:"deviceId"`
	DeviceType string             `json:"deviceType"`
	Sensors    []SensorDescriptor `json:"sensors"`
}

// SensorDescriptor describes a single sensor as advertised to the remote
// collection service.
type SensorDescriptor struct {
	Name                 string    `json:"name"`
	SupportedFrequencies []float64 `json:"frequencies"`
	MaxSampleLengthMS    int       `json:"maxSampleLength"`
}

// SensorProperties is the capability-side view of a sensor, reported by a
// driver through the sensor.Capability contract.
type SensorProperties struct {
	Name                 string
	SupportedFrequencies []float64
	MaxSampleLengthMS    int
}

// Descriptor converts driver-reported properties into the wire descriptor.
func (p SensorProperties) Descriptor() SensorDescriptor {
	return SensorDescriptor{
		Name:                 p.Name,
		SupportedFrequencies: p.SupportedFrequencies,
		MaxSampleLengthMS:    p.MaxSampleLengthMS,
	}
}

// SessionCredentials carries the opaque API key used for the hello frame and
// for upload authorization. Immutable for the session lifetime.
type SessionCredentials struct {
	APIKey string `json:"apiKey"`
}
