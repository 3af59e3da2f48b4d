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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carverauto/fieldagent/pkg/capture"
	"github.com/carverauto/fieldagent/pkg/config"
	"github.com/carverauto/fieldagent/pkg/conn"
	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/metrics"
	"github.com/carverauto/fieldagent/pkg/models"
	"github.com/carverauto/fieldagent/pkg/sensor"
	"github.com/carverauto/fieldagent/pkg/session"
	"github.com/carverauto/fieldagent/pkg/signing"
	"github.com/carverauto/fieldagent/pkg/upload"
	"github.com/carverauto/fieldagent/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/fieldagent/agent.json", "Path to agent config file")
	simulate := flag.Bool("simulate", false, "Register the built-in simulated accelerometer")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg models.AgentConfig

	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return err
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	registry := sensor.NewRegistry()

	if *simulate {
		sim := sensor.NewSimulatedAccelerometer()
		if err := registry.Register(sim.Properties().Name, sim); err != nil {
			return err
		}
	}

	device := models.DeviceDescriptor{
		DeviceID:   cfg.DeviceID,
		DeviceType: cfg.DeviceType,
		Sensors:    registry.Describe(),
	}

	mtr := metrics.New(prometheus.DefaultRegisterer)

	protocol := session.NewProtocol(session.Config{
		Device:      device,
		Credentials: models.SessionCredentials{APIKey: cfg.APIKey},
		Sampler:     capture.NewCoordinator(registry, time.Duration(cfg.PermissionWait), zlog),
		Signer:      signing.NewService(),
		Uploader:    upload.NewClient(cfg.IngestionBase, cfg.APIKey, zlog),
		Metrics:     mtr,
		Logger:      zlog,
	})

	manager := conn.NewManager(conn.Config{
		Endpoint:          cfg.Endpoint,
		HeartbeatInterval: time.Duration(cfg.HeartbeatInterval),
	}, protocol, nil, mtr, zlog)

	protocol.AttachChannel(manager)

	if err := manager.Connect(ctx); err != nil {
		return err
	}

	zlog.Info().
		Str("version", version.GetFullVersion()).
		Str("device_id", device.DeviceID).
		Int("sensors", len(device.Sensors)).
		Msg("fieldagent running")

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Shutting down")
	case <-manager.Done():
		status := manager.Status()
		zlog.Warn().
			Str("state", string(status.State)).
			Str("reason", status.Reason).
			Msg("Control channel closed remotely")
	}

	if err := manager.Close(); err != nil {
		zlog.Debug().Err(err).Msg("Close returned an error")
	}

	// Let any in-flight sampling cycle finish reporting.
	protocol.Wait()

	return nil
}
