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
	"fmt"
	"sort"
	"sync"

	"github.com/carverauto/fieldagent/pkg/models"
)

var (
	errNoSensor          = fmt.Errorf("no sensor found")
	errDuplicateSensor   = fmt.Errorf("sensor already registered")
	errSensorNameEmpty   = fmt.Errorf("sensor name must not be empty")
	errSensorUnavailable = fmt.Errorf("sensor not available on this device")
)

// Registry stores capabilities by name. Registration happens before the
// session starts; lookups are concurrency-safe.
type Registry interface {
	Register(name string, capability Capability) error
	Get(name string) (Capability, error)
	Describe() []models.SensorDescriptor
}

type sensorRegistry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty sensor registry.
func NewRegistry() Registry {
	return &sensorRegistry{
		capabilities: make(map[string]Capability),
	}
}

func (r *sensorRegistry) Register(name string, capability Capability) error {
	if name == "" {
		return errSensorNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.capabilities[name]; ok {
		return fmt.Errorf("%w: %s", errDuplicateSensor, name)
	}

	r.capabilities[name] = capability

	return nil
}

func (r *sensorRegistry) Get(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.capabilities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoSensor, name)
	}

	if !c.HasCapability() {
		return nil, fmt.Errorf("%w: %s", errSensorUnavailable, name)
	}

	return c, nil
}

// Describe returns wire descriptors for every available sensor, sorted by
// name so hello frames are stable across restarts.
func (r *sensorRegistry) Describe() []models.SensorDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]models.SensorDescriptor, 0, len(r.capabilities))

	for _, c := range r.capabilities {
		if !c.HasCapability() {
			continue
		}

		descriptors = append(descriptors, c.Properties().Descriptor())
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})

	return descriptors
}
