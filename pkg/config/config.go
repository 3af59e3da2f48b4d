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

// Package config loads agent configuration from a JSON file with environment
// variable overrides.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/carverauto/fieldagent/pkg/logger"
)

// Validator is implemented by config structs that can check themselves after
// loading.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	loader ConfigLoader
	logger logger.Logger
}

// ConfigLoader loads a configuration payload into dst.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// fileLoader reads agent configuration from a local JSON file.
type fileLoader struct{}

func (fileLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// NewConfig initializes a new Config instance with a file loader.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		loader: fileLoader{},
		logger: log,
	}
}

// LoadAndValidate loads configuration from the given path, applies
// environment overrides, and validates the result if dst implements
// Validator.
func (c *Config) LoadAndValidate(ctx context.Context, path string, dst interface{}) error {
	if err := c.loader.Load(ctx, path, dst); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	applyEnvOverrides(dst)

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid configuration in %s: %w", path, err)
		}
	}

	c.logger.Debug().Str("path", path).Msg("Configuration loaded")

	return nil
}
