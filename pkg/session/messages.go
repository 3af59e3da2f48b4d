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

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/carverauto/fieldagent/pkg/models"
)

// ProtocolVersion is announced in the hello frame.
const ProtocolVersion = 3

var (
	errEmptyEnvelope     = errors.New("envelope carries no recognized tag")
	errAmbiguousEnvelope = errors.New("envelope carries more than one tag")
)

// cborEnc uses Core Deterministic Encoding so the same message always
// produces identical bytes. cborDec accepts standard CBOR; unknown fields
// are ignored for forward compatibility.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("session: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("session: CBOR decoder initialization failed: " + err.Error())
	}
}

// HelloMessage announces the device and its capabilities.
type HelloMessage struct {
	Version    int                       `json:"version"`
	APIKey     string                    `json:"apiKey"`
	DeviceID   string                    `json:"deviceId"`
	DeviceType string                    `json:"deviceType"`
	Sensors    []models.SensorDescriptor `json:"sensors"`
}

// HelloAck is the server's response to a hello. Connected=false carries an
// error and degrades the connection until a later successful ack.
type HelloAck struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// Ack is a field-less status tag.
type Ack struct{}

// Failure is the terminal status of a failed sampling cycle.
type Failure struct {
	Reason string `json:"reason"`
}

// Envelope is the control channel message: a mapping with exactly one of the
// recognized tags present. Text frames carry it as JSON, binary frames as
// CBOR with the same field names.
type Envelope struct {
	Hello                 *HelloMessage         `json:"hello,omitempty"`
	HelloAck              *HelloAck             `json:"hello-ack,omitempty"`
	SampleRequest         *models.SampleRequest `json:"sample-request,omitempty"`
	SampleRequestReceived *Ack                  `json:"sample-request-received,omitempty"`
	SampleStarted         *Ack                  `json:"sample-started,omitempty"`
	SampleUploading       *Ack                  `json:"sample-uploading,omitempty"`
	SampleFinished        *Ack                  `json:"sample-finished,omitempty"`
	SampleRequestFailed   *Failure              `json:"sample-request-failed,omitempty"`
}

func (e *Envelope) tagCount() int {
	count := 0

	for _, present := range []bool{
		e.Hello != nil,
		e.HelloAck != nil,
		e.SampleRequest != nil,
		e.SampleRequestReceived != nil,
		e.SampleStarted != nil,
		e.SampleUploading != nil,
		e.SampleFinished != nil,
		e.SampleRequestFailed != nil,
	} {
		if present {
			count++
		}
	}

	return count
}

func (e *Envelope) validate() error {
	switch n := e.tagCount(); {
	case n == 0:
		return errEmptyEnvelope
	case n > 1:
		return errAmbiguousEnvelope
	default:
		return nil
	}
}

// Tag names the single tag present, for logging.
func (e *Envelope) Tag() string {
	switch {
	case e.Hello != nil:
		return "hello"
	case e.HelloAck != nil:
		return "hello-ack"
	case e.SampleRequest != nil:
		return "sample-request"
	case e.SampleRequestReceived != nil:
		return "sample-request-received"
	case e.SampleStarted != nil:
		return "sample-started"
	case e.SampleUploading != nil:
		return "sample-uploading"
	case e.SampleFinished != nil:
		return "sample-finished"
	case e.SampleRequestFailed != nil:
		return "sample-request-failed"
	default:
		return "unknown"
	}
}

// DecodeJSON parses a structured text frame.
func DecodeJSON(data []byte) (*Envelope, error) {
	var env Envelope

	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode JSON envelope: %w", err)
	}

	if err := env.validate(); err != nil {
		return nil, err
	}

	return &env, nil
}

// DecodeCBOR parses a binary frame.
func DecodeCBOR(data []byte) (*Envelope, error) {
	var env Envelope

	if err := cborDec.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR envelope: %w", err)
	}

	if err := env.validate(); err != nil {
		return nil, err
	}

	return &env, nil
}

// EncodeJSON serializes the envelope for a text frame.
func (e *Envelope) EncodeJSON() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	return json.Marshal(e)
}

// EncodeCBOR serializes the envelope for a binary frame.
func (e *Envelope) EncodeCBOR() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	return cborEnc.Marshal(e)
}

// NewHelloEnvelope builds the hello frame for the given device and credentials.
func NewHelloEnvelope(device models.DeviceDescriptor, creds models.SessionCredentials) *Envelope {
	return &Envelope{Hello: &HelloMessage{
		Version:    ProtocolVersion,
		APIKey:     creds.APIKey,
		DeviceID:   device.DeviceID,
		DeviceType: device.DeviceType,
		Sensors:    device.Sensors,
	}}
}

func receivedEnvelope() *Envelope  { return &Envelope{SampleRequestReceived: &Ack{}} }
func startedEnvelope() *Envelope   { return &Envelope{SampleStarted: &Ack{}} }
func uploadingEnvelope() *Envelope { return &Envelope{SampleUploading: &Ack{}} }
func finishedEnvelope() *Envelope  { return &Envelope{SampleFinished: &Ack{}} }

func failedEnvelope(reason string) *Envelope {
	return &Envelope{SampleRequestFailed: &Failure{Reason: reason}}
}
