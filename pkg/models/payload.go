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

// EmptySignature is the canonical value the signature field holds while the
// HMAC is computed over the serialized payload.
const EmptySignature = ""

// SignatureAlgHS256 identifies HMAC-SHA256 in the protected header.
const SignatureAlgHS256 = "HS256"

// ProtectedHeader is the integrity-protected metadata of a signed payload.
type ProtectedHeader struct {
	Version   string `json:"ver"`
	Algorithm string `json:"alg"`
	IssuedAt  int64  `json:"iat"`
}

// PayloadBody is the capture result plus device metadata that gets signed
// and uploaded.
type PayloadBody struct {
	DeviceID   string             `json:"device_name"`
	DeviceType string             `json:"device_type"`
	IntervalMS float64            `json:"interval_ms"`
	Sensors    []SensorDescriptor `json:"sensors"`
	Values     [][]float64        `json:"values,omitempty"`
	Raw        []byte             `json:"raw,omitempty"`
}

// SignedPayload is the upload body: the captured sample plus device and
// session metadata with a signature computed by the signing service. The
// signature is computed over the payload serialized with Signature set to
// EmptySignature, then substituted in.
type SignedPayload struct {
	Protected ProtectedHeader `json:"protected"`
	Signature string          `json:"signature"`
	Payload   PayloadBody     `json:"payload"`
}
