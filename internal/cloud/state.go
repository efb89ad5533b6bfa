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
// generative model. This file initializes and holds the client objects the
// application depends on. It acts as a small dependency injection container:
// NewCloudServiceClients builds one shared ServiceClients struct at startup
// (or lazily, under the lazy startup policy) and the rest of the application
// receives it by reference.
package cloud

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"
)

// DefaultAPIKeyEnv is the environment variable consulted for the model API
// key when a model's config does not name its own.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// ErrAPIKeyMissing is the explicit "not configured" variant returned when no
// API key is present in the environment. Callers branch on it to distinguish
// a deployment problem from a transport failure.
var ErrAPIKeyMissing = fmt.Errorf("generative model API key is not set")

// ServiceClients is a container for all remote-service clients. Instances
// are immutable after construction and safe for concurrent use.
type ServiceClients struct {
	GenAIClient *genai.Client                           // Client for the hosted generative model service.
	AgentModels map[string]*QuotaAwareGenerativeAIModel // Configured model wrappers, keyed by logical name from the config.
}

// APIKeyPresent reports whether any configured model has an API key available
// in the environment. Used by the health endpoint, which must answer without
// constructing a client.
func APIKeyPresent(config *Config) bool {
	for _, m := range config.AgentModels {
		if apiKeyFor(&m) != "" {
			return true
		}
	}
	return os.Getenv(DefaultAPIKeyEnv) != ""
}

func apiKeyFor(m *GenerativeLLMModel) string {
	envName := m.APIKeyEnv
	if envName == "" {
		envName = DefaultAPIKeyEnv
	}
	return os.Getenv(envName)
}

// NewCloudServiceClients builds the generative client and one configured,
// rate-limited wrapper per agent model in the config. It returns
// ErrAPIKeyMissing when the environment carries no key, so callers can
// surface the "not configured" state instead of a nil handle.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	var apiKey string
	for _, m := range config.AgentModels {
		if k := apiKeyFor(&m); k != "" {
			apiKey = k
			break
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv(DefaultAPIKeyEnv)
	}
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		cfg := &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](values.Temperature),
			MaxOutputTokens:  values.MaxTokens,
			SafetySettings:   DefaultSafetySettings,
			ResponseMIMEType: values.OutputFormat,
		}
		if values.TopP > 0 {
			cfg.TopP = genai.Ptr[float32](values.TopP)
		}
		if values.TopK > 0 {
			cfg.TopK = genai.Ptr[float32](values.TopK)
		}
		if values.SystemInstructions != "" {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
		}
		timeout := time.Duration(values.TimeoutInSeconds) * time.Second
		agentModels[amKey] = NewQuotaAwareModel(cfg, values.Model, gc.Models, values.RateLimit, timeout)
	}

	return &ServiceClients{
		GenAIClient: gc,
		AgentModels: agentModels,
	}, nil
}
