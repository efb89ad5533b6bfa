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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidreport/go-video-report/internal/cloud"
)

const baseTOML = `
[application]
name = "video-report"
port = 8080
startup_policy = "strict"

[ffmpeg]
path = "ffmpeg"
interval_seconds = 1.0
quality = 2

[agent_models.vision]
model = "gemini-2.0-flash"
max_tokens = 100
rate_limit = 2
`

const overrideTOML = `
[application]
port = 9999
startup_policy = "lazy"
`

func TestLoadConfigAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(baseTOML), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging.toml"), []byte(overrideTOML), 0o644))

	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "staging")

	config := cloud.NewConfig()
	cloud.LoadConfig(config)

	// Override values win, base values survive where not overridden.
	assert.Equal(t, 9999, config.Application.Port)
	assert.Equal(t, cloud.StartupPolicyLazy, config.Application.StartupPolicy)
	assert.Equal(t, "video-report", config.Application.Name)
	assert.Equal(t, 1.0, config.FFmpeg.IntervalSeconds)

	vision, ok := config.AgentModels["vision"]
	assert.True(t, ok)
	assert.Equal(t, int32(100), vision.MaxTokens)
}

func TestLoadConfigMissingFilesKeepsDefaults(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(cloud.EnvConfigRuntime, "nope")

	config := cloud.NewConfig()
	cloud.LoadConfig(config)

	assert.Equal(t, cloud.StartupPolicyStrict, config.Application.StartupPolicy)
	assert.Equal(t, "ffmpeg", config.FFmpeg.Path)
	assert.Equal(t, int64(100<<20), config.MaxUploadBytes())
}