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

import "fmt"

// ErrorCategory classifies a request-scoped failure so the session protocol
// can report it without inspecting error strings. Connection-level errors are
// not request errors and never carry a category.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryPermission ErrorCategory = "permission"
	CategoryCapture    ErrorCategory = "capture"
	CategorySigning    ErrorCategory = "signing"
	CategoryUpload     ErrorCategory = "upload"
)

// RequestError is a request-scoped failure. It always ends the current
// sampling cycle with a sample-request-failed status and never terminates
// the control channel.
type RequestError struct {
	Category ErrorCategory
	Reason   string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Category, e.Reason)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a request rejected before any capture work.
func NewValidationError(reason string) *RequestError {
	return &RequestError{Category: CategoryValidation, Reason: reason}
}

// NewPermissionError reports a denied or timed-out permission negotiation.
func NewPermissionError(reason string) *RequestError {
	return &RequestError{Category: CategoryPermission, Reason: reason}
}

// NewCaptureError reports a failure in sensor lookup or capture.
func NewCaptureError(reason string, err error) *RequestError {
	return &RequestError{Category: CategoryCapture, Reason: reason, Err: err}
}

// NewSigningError reports a payload signing failure.
func NewSigningError(err error) *RequestError {
	return &RequestError{Category: CategorySigning, Reason: "failed to sign payload", Err: err}
}

// NewUploadError reports an upload transport or status failure.
func NewUploadError(err error) *RequestError {
	return &RequestError{Category: CategoryUpload, Reason: "upload failed", Err: err}
}

// FailureReason renders the human-readable reason sent to the remote peer in
// a sample-request-failed status.
func (e *RequestError) FailureReason() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}

	return e.Reason
}
