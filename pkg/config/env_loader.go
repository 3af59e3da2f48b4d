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

package config

import (
	"os"

	"github.com/carverauto/fieldagent/pkg/models"
)

// applyEnvOverrides lets deployment environments inject endpoint and
// credential settings without editing the config file. Only the agent config
// has env-visible fields.
func applyEnvOverrides(dst interface{}) {
	cfg, ok := dst.(*models.AgentConfig)
	if !ok {
		return
	}

	if v := os.Getenv("FIELDAGENT_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}

	if v := os.Getenv("FIELDAGENT_INGESTION_BASE"); v != "" {
		cfg.IngestionBase = v
	}

	if v := os.Getenv("FIELDAGENT_API_KEY"); v != "" {
		cfg.APIKey = v
	}

	if v := os.Getenv("FIELDAGENT_DEVICE_ID"); v != "" {
		cfg.DeviceID = v
	}
}
