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

// Package cloud provides components for interacting with the hosted
// generative model. This file implements a decorator around the raw genai
// model handle that adds rate limiting and a per-call client-side timeout.
//
// Hosted models enforce request quotas; the limiter keeps the pipeline under
// them without the callers having to think about pacing. The timeout bounds
// each remote call so one hung request cannot stall a whole analysis forever.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the narrow surface the pipeline commands need from a
// generative model. The production implementation is
// QuotaAwareGenerativeAIModel; tests substitute fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel wraps a model handle with its generation
// config, a rate limiter, and a call timeout.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation settings (temperature, token cap, response MIME type, ...).
	ModelName               string                       // The hosted model name.
	ModelHandle             *genai.Models                // The underlying genai model accessor.
	RateLimit               *rate.Limiter                // Paces requests to stay inside the model's quota.
	Timeout                 time.Duration                // Client-side bound applied to every call. Zero means no bound.
}

// NewQuotaAwareModel creates a rate-limited, timeout-bounded model wrapper.
// requestsPerSecond caps the steady-state call rate; values below one are
// clamped to one.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int, timeout time.Duration) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second), requestsPerSecond),
		Timeout:                 timeout,
	}
}

// GenerateContent blocks until the rate limiter admits the request, then
// issues a single call bounded by the configured timeout. Failures are
// returned to the caller untouched: retry is deliberately not implemented
// here, the pipeline degrades per frame or per report instead.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	if q.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.Timeout)
		defer cancel()
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}
