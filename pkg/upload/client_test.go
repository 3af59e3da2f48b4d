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

package upload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldagent/pkg/logger"
	"github.com/carverauto/fieldagent/pkg/models"
)

func signedPayload() *models.SignedPayload {
	return &models.SignedPayload{
		Protected: models.ProtectedHeader{Version: "v1", Algorithm: models.SignatureAlgHS256},
		Signature: "deadbeef",
		Payload: models.PayloadBody{
			DeviceID: "device-1",
			Values:   [][]float64{{1, 2, 3}},
		},
	}
}

func TestUploadSuccess(t *testing.T) {
	var (
		gotPath     string
		gotAPIKey   string
		gotFileName string
		gotBody     models.SignedPayload
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		gotFileName = r.Header.Get("x-file-name")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-api-key", logger.NewTestLogger())

	err := c.Upload(context.Background(), "/api/training/data", "wave.1", signedPayload())
	require.NoError(t, err)

	assert.Equal(t, "/api/training/data", gotPath)
	assert.Equal(t, "test-api-key", gotAPIKey)
	assert.Equal(t, "wave.1", gotFileName)
	assert.Equal(t, "deadbeef", gotBody.Signature)
}

func TestUploadNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong-key", logger.NewTestLogger())

	err := c.Upload(context.Background(), "/api/training/data", "wave.1", signedPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnexpectedStatusCode)
	assert.Contains(t, err.Error(), "bad api key")
}

func TestUploadNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	c := NewClient(srv.URL, "key", logger.NewTestLogger())

	err := c.Upload(context.Background(), "/api/training/data", "wave.1", signedPayload())
	assert.Error(t, err)
}

func TestUploadTrailingSlashBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingest", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key", logger.NewTestLogger())
	require.NoError(t, c.Upload(context.Background(), "/ingest", "label", signedPayload()))
}
