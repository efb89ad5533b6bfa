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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the client container and model wrappers used
// to talk to the hosted generative model.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
package cloud

import "google.golang.org/genai"

// Startup policies select how the process behaves when the generative
// client cannot be constructed at boot.
const (
	// StartupPolicyStrict aborts the process at startup if the generative
	// client cannot be initialized (missing API key, bad transport, ...).
	StartupPolicyStrict = "strict"
	// StartupPolicyLazy lets the process start without a client; each
	// analysis request retries initialization and reports a typed
	// not-configured error until it succeeds.
	StartupPolicyLazy = "lazy"
)

// DefaultSafetySettings defines the default content safety thresholds for the
// generative models. The input is user-supplied video, so all categories pass
// through unblocked and moderation stays the operator's concern.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the Go text/template sources for the prompts sent to
// the generative models.
type PromptTemplates struct {
	FramePrompt  string `toml:"frame"`  // The per-frame description instruction.
	ReportPrompt string `toml:"report"` // The final editorial-report template.
}

// GenerativeLLMModel represents the configuration for one logical generative
// model (the per-frame vision model and the report model are configured
// separately so their token caps and output formats can differ).
type GenerativeLLMModel struct {
	Model              string  `toml:"model"`               // The hosted model name (e.g. "gemini-2.0-flash").
	APIKeyEnv          string  `toml:"api_key_env"`         // Environment variable holding the API key.
	SystemInstructions string  `toml:"system_instructions"` // Optional system instructions.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // The top_p parameter.
	TopK               float32 `toml:"top_k"`               // The top_k parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Output token cap.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type ("text/plain" or "application/json").
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed for this model.
	TimeoutInSeconds   int     `toml:"timeout_in_seconds"`  // Client-side timeout applied to each call.
}

// FFmpeg holds the configuration for the external frame-sampling tool.
type FFmpeg struct {
	Path            string  `toml:"path"`             // Path to the ffmpeg executable.
	IntervalSeconds float64 `toml:"interval_seconds"` // Seconds between sampled frames.
	Quality         int     `toml:"quality"`          // JPEG quality passed to -q:v (2 = high).
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	Application struct {
		Name          string `toml:"name"`           // The name of the application (used as the telemetry service name).
		Port          int    `toml:"port"`           // HTTP listen port.
		MetricsPort   int    `toml:"metrics_port"`   // Prometheus scrape endpoint port.
		OTLPEndpoint  string `toml:"otlp_endpoint"`  // OTLP/HTTP trace collector endpoint. Empty disables export.
		StartupPolicy string `toml:"startup_policy"` // "strict" or "lazy"; see the policy constants.
		MaxUploadMB   int64  `toml:"max_upload_mb"`  // Maximum accepted upload size in megabytes.
	} `toml:"application"`
	FFmpeg          FFmpeg                        `toml:"ffmpeg"`           // External frame sampler configuration.
	PromptTemplates PromptTemplates               `toml:"prompt_templates"` // Prompt templates configuration.
	AgentModels     map[string]GenerativeLLMModel `toml:"agent_models"`     // Generative models, keyed by logical name ("vision", "report").
}

// MaxUploadBytes returns the configured upload cap in bytes, defaulting to
// 100MB when unset.
func (c *Config) MaxUploadBytes() int64 {
	if c.Application.MaxUploadMB <= 0 {
		return 100 << 20
	}
	return c.Application.MaxUploadMB << 20
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The map fields must be non-nil before the TOML loader populates
// them. Defaults here mirror the original tool: one frame per second at high
// JPEG quality, strict startup.
func NewConfig() *Config {
	out := &Config{
		AgentModels: make(map[string]GenerativeLLMModel),
	}
	out.Application.StartupPolicy = StartupPolicyStrict
	out.FFmpeg.Path = "ffmpeg"
	out.FFmpeg.IntervalSeconds = 1.0
	out.FFmpeg.Quality = 2
	return out
}
