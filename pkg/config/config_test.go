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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/models"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint": "wss://studio.example.com/socket",
		"ingestion_base": "https://ingestion.example.com",
		"api_key": "ei_test_key",
		"device_type": "handheld",
		"heartbeat_interval": "5s"
	}`)

	var cfg models.AgentConfig

	c := NewConfig(logger.NewTestLogger())
	require.NoError(t, c.LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "wss://studio.example.com/socket", cfg.Endpoint)
	assert.Equal(t, "handheld", cfg.DeviceType)
	assert.Equal(t, 5*time.Second, time.Duration(cfg.HeartbeatInterval))
	// Defaults applied during validation.
	assert.NotEmpty(t, cfg.DeviceID)
	assert.Equal(t, 60*time.Second, time.Duration(cfg.PermissionWait))
}

func TestLoadAndValidateMissingAPIKey(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint": "wss://studio.example.com/socket",
		"ingestion_base": "https://ingestion.example.com"
	}`)

	var cfg models.AgentConfig

	c := NewConfig(logger.NewTestLogger())
	err := c.LoadAndValidate(context.Background(), path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestLoadAndValidateEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `{
		"endpoint": "wss://studio.example.com/socket",
		"ingestion_base": "https://ingestion.example.com",
		"api_key": "from-file"
	}`)

	t.Setenv("FIELDAGENT_API_KEY", "from-env")

	var cfg models.AgentConfig

	c := NewConfig(logger.NewTestLogger())
	require.NoError(t, c.LoadAndValidate(context.Background(), path, &cfg))
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	var cfg models.AgentConfig

	c := NewConfig(logger.NewTestLogger())
	err := c.LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "missing.json"), &cfg)
	assert.Error(t, err)
}
