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

package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/services"
	test "github.com/vidreport/go-video-report/internal/testutil"
)

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForKind(services.KindNoFile))
	assert.Equal(t, http.StatusServiceUnavailable, statusForKind(services.KindNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(services.KindExtraction))
	assert.Equal(t, http.StatusInternalServerError, statusForKind(services.KindInternal))
}

func TestLazyClientInitRetries(t *testing.T) {
	cfg := test.GetConfig()
	cfg.Application.StartupPolicy = cloud.StartupPolicyLazy
	s := &StateManager{config: cfg}

	// No API key: the first build fails and the failure is recorded.
	t.Setenv(cloud.DefaultAPIKeyEnv, "")

	_, err := s.getPipeline(context.Background())
	assert.Error(t, err)
	assert.False(t, s.ClientReady())
	assert.Error(t, s.LastInitError())

	// Once the key appears, the next call succeeds and clears the state.
	t.Setenv(cloud.DefaultAPIKeyEnv, "test-api-key")

	pipeline, err := s.getPipeline(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, pipeline)
	assert.True(t, s.ClientReady())
	assert.NoError(t, s.LastInitError())

	// Later calls reuse the built pipeline instead of rebuilding.
	again, err := s.getPipeline(context.Background())
	assert.NoError(t, err)
	assert.Same(t, pipeline, again)
}
