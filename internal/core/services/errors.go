// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import "fmt"

// ErrorKind classifies analysis failures so the transport layer can map
// each to a status code without string matching.
type ErrorKind int

const (
	// KindInternal is the default for unexpected failures.
	KindInternal ErrorKind = iota
	// KindNotConfigured means the generative AI backend is unavailable,
	// usually because no API key was provided.
	KindNotConfigured
	// KindNoFile means the request carried no usable video upload.
	KindNoFile
	// KindExtraction means ffmpeg failed or produced zero frames.
	KindExtraction
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindNoFile:
		return "no_file"
	case KindExtraction:
		return "extraction"
	default:
		return "internal"
	}
}

// AnalysisError is the error type returned by the analysis service. Kind
// drives the HTTP mapping; the wrapped error keeps the cause for logs.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewAnalysisError builds a classified error with an optional cause.
func NewAnalysisError(kind ErrorKind, message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: kind, Message: message, Err: cause}
}
