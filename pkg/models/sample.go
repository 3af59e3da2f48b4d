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

package models

// SampleRequest is a single capture request delivered over the control
// channel. It arrives once per capture cycle, is never mutated, and is
// discarded when the cycle ends.
type SampleRequest struct {
	Label      string  `json:"label"`
	LengthMS   int     `json:"length"`
	Path       string  `json:"path"`
	HMACKey    string  `json:"hmacKey"`
	IntervalMS float64 `json:"interval"`
	Sensor     string  `json:"sensor"`
}

// FrequencyHz derives the requested sampling frequency from the per-sample
// interval. Zero when the interval is unset (bulk sensors pick their own).
func (r *SampleRequest) FrequencyHz() float64 {
	if r.IntervalMS <= 0 {
		return 0
	}

	return 1000 / r.IntervalMS
}

// CapturedSample is the result of one bounded-duration capture. Vector
// sensors fill Values plus the parallel IntervalsMS slice; bulk sensors
// (e.g. audio) fill Raw with an explicit interval and channel metadata.
// Produced exactly once per successful capture; immutable afterwards.
type CapturedSample struct {
	Values      [][]float64 `json:"values,omitempty"`
	IntervalsMS []float64   `json:"intervals,omitempty"`

	Raw        []byte   `json:"raw,omitempty"`
	IntervalMS float64  `json:"interval,omitempty"`
	Channels   []string `json:"channels,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

// Empty reports whether the capture produced no measurements at all.
func (s *CapturedSample) Empty() bool {
	return s == nil || (len(s.Values) == 0 && len(s.Raw) == 0)
}
