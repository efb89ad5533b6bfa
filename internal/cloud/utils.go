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
// generative model. This file contains general-purpose helpers: hierarchical
// TOML configuration loading and the shared multimodal request helper used by
// the pipeline commands.
package cloud

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Configuration loading constants. The loader reads a base file and then an
// environment-specific override, both TOML.
const (
	ConfigFileBaseName  = ".env"                        // Base name for configuration files (".env.toml").
	ConfigFileExtension = ".toml"                       // File extension for configuration files.
	ConfigSeparator     = "."                           // Separator in override file names (".env.local.toml").
	EnvConfigFilePrefix = "VIDEO_REPORT_CONFIG_PREFIX"  // Environment variable naming the config directory.
	EnvConfigRuntime    = "VIDEO_REPORT_RUNTIME"        // Environment variable naming the runtime ("local", "test", ...).
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It
// first loads a base configuration file and then overwrites its values with
// an environment-specific configuration file. The directory and environment
// are taken from EnvConfigFilePrefix and EnvConfigRuntime.
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "local"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// Values in the environment file overwrite the base values.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateMultiModalResponse executes one request against a generative model
// and concatenates the text of all returned candidates. There is no retry:
// the pipeline's resilience points are the per-frame error substitution and
// the report fallback, both owned by the calling commands.
//
// Token usage is recorded on the supplied counters when the model reports it.
// Code fences around JSON responses are stripped so structured output can be
// unmarshaled directly.
func GenerateMultiModalResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	model ContentGenerator,
	content []*genai.Content) (value string, err error) {
	resp, err := model.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}

	if resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	value = strings.TrimSpace(sb.String())
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), nil
}

// NewTextPart is a factory delegate for a text prompt part.
func NewTextPart(in string) *genai.Part {
	return &genai.Part{Text: in}
}

// NewJPEGPart is a factory delegate for an inline JPEG image part. The SDK
// base64-encodes the bytes on the wire.
func NewJPEGPart(data []byte) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: data}}
}
