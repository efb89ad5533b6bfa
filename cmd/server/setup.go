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
	"log"
	"os"
	"sync"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/services"
	"github.com/vidreport/go-video-report/internal/core/workflow"
)

// StateManager holds the shared components for the application. The mutex
// guards lazy client initialization, which can race between concurrent
// requests when the startup policy is "lazy".
type StateManager struct {
	mu              sync.Mutex
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	pipeline        *workflow.VideoAnalysisWorkflow
	analysisService *services.AnalysisService
	lastInitErr     error
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		// Create a default config, then layer the TOML files over it.
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state and dependencies. Under the
// strict startup policy a missing API key aborts boot; under the lazy
// policy the failure is recorded and retried on each analyze request.
func InitState(ctx context.Context) {
	config := GetConfig()

	_, err := state.getPipeline(ctx)
	if err != nil {
		if config.Application.StartupPolicy == cloud.StartupPolicyLazy {
			log.Printf("generative AI clients unavailable, deferring to first request: %v\n", err)
		} else {
			log.Fatalf("failed to initialize generative AI clients: %v\n", err)
		}
	}

	state.analysisService = services.NewAnalysisService(
		func() (*workflow.VideoAnalysisWorkflow, error) {
			return state.getPipeline(context.Background())
		},
		services.NewReportStore())
}

// getPipeline returns the analysis pipeline, building the service clients
// on first use. Safe for concurrent callers.
func (s *StateManager) getPipeline(ctx context.Context) (*workflow.VideoAnalysisWorkflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil {
		return s.pipeline, nil
	}

	clients, err := cloud.NewCloudServiceClients(ctx, s.config)
	if err != nil {
		s.lastInitErr = err
		return nil, err
	}

	s.cloud = clients
	s.pipeline = workflow.NewVideoAnalysisPipeline(
		s.config,
		clients.AgentModels[workflow.VisionAgentName],
		clients.AgentModels[workflow.ReportAgentName])
	s.lastInitErr = nil
	return s.pipeline, nil
}

// ClientReady reports whether the generative AI clients have been built.
func (s *StateManager) ClientReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline != nil
}

// LastInitError returns the most recent client initialization failure, or
// nil once initialization has succeeded.
func (s *StateManager) LastInitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInitErr
}
