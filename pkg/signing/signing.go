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

// Package signing computes the keyed authentication code carried by upload
// payloads. The signature is an HMAC-SHA256 over the payload serialized with
// the signature field held at its canonical empty value; identical key and
// payload always yield the identical lowercase hex digest.
package signing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/fieldagent/pkg/models"
)

var errEmptyKey = errors.New("signing key must not be empty")

// Service signs upload payloads.
type Service struct{}

// NewService creates a signature service.
func NewService() *Service {
	return &Service{}
}

// Sign returns the lowercase hex HMAC-SHA256 of the payload serialized with
// its signature field emptied. The context allows callers to back the
// computation with asynchronous platform crypto APIs.
func (*Service) Sign(ctx context.Context, key string, payload *models.SignedPayload) (string, error) {
	if key == "" {
		return "", errEmptyKey
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	clone := *payload
	clone.Signature = models.EmptySignature

	data, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("failed to serialize payload for signing: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(data)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// SignPayload computes the signature and substitutes it into the payload.
func (s *Service) SignPayload(ctx context.Context, key string, payload *models.SignedPayload) error {
	signature, err := s.Sign(ctx, key, payload)
	if err != nil {
		return err
	}

	payload.Signature = signature

	return nil
}

// Verify recomputes the signature and compares it in constant time.
func (s *Service) Verify(ctx context.Context, key string, payload *models.SignedPayload) (bool, error) {
	expected, err := s.Sign(ctx, key, payload)
	if err != nil {
		return false, err
	}

	return hmac.Equal([]byte(expected), []byte(payload.Signature)), nil
}
