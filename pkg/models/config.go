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

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/fieldagent/pkg/logger"
)

var (
	errInvalidDuration       = errors.New("invalid duration value")
	errEndpointRequired      = errors.New("endpoint is required")
	errIngestionBaseRequired = errors.New("ingestion_base is required")
	errAPIKeyRequired        = errors.New("api_key is required")
)

// Duration is a time.Duration that unmarshals from either a JSON number
// (nanoseconds) or a string accepted by time.ParseDuration ("3s").
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

const (
	defaultDeviceType        = "fieldagent"
	defaultHeartbeatInterval = 3 * time.Second
	defaultPermissionWait    = 60 * time.Second
)

// AgentConfig represents the configuration for one fieldagent instance.
type AgentConfig struct {
	Endpoint          string         `json:"endpoint"`       // ws(s):// control channel URL
	IngestionBase     string         `json:"ingestion_base"` // http(s):// upload base URL
	APIKey            string         `json:"api_key"`
	DeviceID          string         `json:"device_id,omitempty"`
	DeviceType        string         `json:"device_type,omitempty"`
	HeartbeatInterval Duration       `json:"heartbeat_interval,omitempty"`
	PermissionWait    Duration       `json:"permission_wait,omitempty"`
	Logging           *logger.Config `json:"logging,omitempty"`
}

// Validate checks required fields and fills defaults. A missing device ID is
// replaced with a generated one; it is the caller's job to persist it if the
// ID must be stable across restarts.
func (c *AgentConfig) Validate() error {
	if c.Endpoint == "" {
		return errEndpointRequired
	}

	if c.IngestionBase == "" {
		return errIngestionBaseRequired
	}

	if c.APIKey == "" {
		return errAPIKeyRequired
	}

	if c.DeviceID == "" {
		c.DeviceID = uuid.NewString()
	}

	if c.DeviceType == "" {
		c.DeviceType = defaultDeviceType
	}

	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = Duration(defaultHeartbeatInterval)
	}

	if c.PermissionWait <= 0 {
		c.PermissionWait = Duration(defaultPermissionWait)
	}

	return nil
}
