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

// Package upload ships signed payloads to the ingestion endpoint. Uploads
// are one-shot: failures are reported to the caller and never retried here.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/models"
)

const (
	defaultTimeout    = 30 * time.Second
	maxErrorBodyBytes = 512

	headerAPIKey   = "x-api-key"
	headerFileName = "x-file-name"
)

var errUnexpectedStatusCode = errors.New("unexpected status code")

// Client posts signed payloads to {ingestionBase}{path}.
type Client struct {
	ingestionBase string
	apiKey        string
	httpClient    *http.Client
	logger        logger.Logger
}

// NewClient creates an upload client for the given ingestion base URL.
func NewClient(ingestionBase, apiKey string, log logger.Logger) *Client {
	return &Client{
		ingestionBase: strings.TrimRight(ingestionBase, "/"),
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		logger:        log.WithComponent("upload"),
	}
}

// Upload POSTs the signed payload to the request's upload path. The capture
// label travels in the x-file-name header; any non-2xx response is an error.
func (c *Client) Upload(ctx context.Context, path, label string, payload *models.SignedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize payload: %w", err)
	}

	url := c.ingestionBase + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerFileName, label)

	c.logger.Debug().
		Str("url", url).
		Str("label", label).
		Int("bytes", len(body)).
		Msg("Uploading signed payload")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode,
			resp.StatusCode, string(excerpt))
	}

	c.logger.Info().
		Str("label", label).
		Int("status", resp.StatusCode).
		Msg("Upload complete")

	return nil
}
