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

package session

// Events is the surface consumed by the external presentation layer. The
// core never shares mutable state with it; views subscribe to transitions
// through these callbacks only.
type Events interface {
	Connected()
	Error(message string)
	SamplingStarted(lengthMS int)
	SamplingUploading()
	SamplingProcessing()
	SamplingFinished()
	SamplingError(message string)
}

// NopEvents discards all events. Used when no presentation layer is attached.
type NopEvents struct{}

func (NopEvents) Connected()           {}
func (NopEvents) Error(string)         {}
func (NopEvents) SamplingStarted(int)  {}
func (NopEvents) SamplingUploading()   {}
func (NopEvents) SamplingProcessing()  {}
func (NopEvents) SamplingFinished()    {}
func (NopEvents) SamplingError(string) {}
