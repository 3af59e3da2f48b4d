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

package signing

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldagent/pkg/models"
)

func testPayload() *models.SignedPayload {
	return &models.SignedPayload{
		Protected: models.ProtectedHeader{
			Version:   "v1",
			Algorithm: models.SignatureAlgHS256,
			IssuedAt:  1735689600,
		},
		Payload: models.PayloadBody{
			DeviceID:   "device-1",
			DeviceType: "handheld",
			IntervalMS: 16,
			Sensors: []models.SensorDescriptor{
				{Name: "accelerometer", SupportedFrequencies: []float64{62.5}, MaxSampleLengthMS: 300000},
			},
			Values: [][]float64{{0.1, 0.2, 9.81}, {0.2, 0.1, 9.79}},
		},
	}
}

func TestSignDeterministic(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	first, err := s.Sign(ctx, "secret", testPayload())
	require.NoError(t, err)

	second, err := s.Sign(ctx, "secret", testPayload())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), first)
}

func TestSignIgnoresExistingSignature(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	signed := testPayload()
	require.NoError(t, s.SignPayload(ctx, "secret", signed))
	require.NotEmpty(t, signed.Signature)

	// Re-signing the already signed payload yields the same digest: the
	// signature field is held at its canonical empty value during hashing.
	again, err := s.Sign(ctx, "secret", signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Signature, again)
}

func TestSignAvalanche(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	base, err := s.Sign(ctx, "secret", testPayload())
	require.NoError(t, err)

	tweakedValue := testPayload()
	tweakedValue.Payload.Values[1][2] = 9.80

	changed, err := s.Sign(ctx, "secret", tweakedValue)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)

	otherKey, err := s.Sign(ctx, "secret2", testPayload())
	require.NoError(t, err)
	assert.NotEqual(t, base, otherKey)
}

func TestSignEmptyKey(t *testing.T) {
	s := NewService()

	_, err := s.Sign(context.Background(), "", testPayload())
	assert.ErrorIs(t, err, errEmptyKey)
}

func TestVerify(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	signed := testPayload()
	require.NoError(t, s.SignPayload(ctx, "secret", signed))

	ok, err := s.Verify(ctx, "secret", signed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, "wrong-key", signed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignCancelledContext(t *testing.T) {
	s := NewService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Sign(ctx, "secret", testPayload())
	assert.ErrorIs(t, err, context.Canceled)
}
