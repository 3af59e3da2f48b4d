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

// ConnectionState tracks the control channel lifecycle. Transitions are
// driven only by the connection manager.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionDegraded     ConnectionState = "degraded"
)

// ConnectionStatus pairs the state with the degradation reason, which is
// only meaningful when State is ConnectionDegraded.
type ConnectionStatus struct {
	State  ConnectionState `json:"state"`
	Reason string          `json:"reason,omitempty"`
}

// SessionState tracks the hello/request/status exchange. Exactly one sample
// request may be active; transitions are owned by the session protocol.
type SessionState string

const (
	SessionAwaitingHello      SessionState = "awaiting_hello"
	SessionIdle               SessionState = "idle"
	SessionAwaitingPermission SessionState = "awaiting_permission"
	SessionSampling           SessionState = "sampling"
	SessionUploading          SessionState = "uploading"
)
