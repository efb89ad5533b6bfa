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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the video analysis workflow: sample frames with ffmpeg, describe each
// frame with the vision model, and synthesize the final editorial report.
package workflow

import (
	"text/template"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/commands"
	"github.com/vidreport/go-video-report/internal/core/cor"
)

// Context parameter names under which the workflow publishes its
// intermediate and final outputs. Callers read the finished report from
// ReportParamName after Execute returns.
const (
	FramePathsParamName   = "__frame_paths__"
	FrameResultsParamName = "__frame_results__"
	ReportParamName       = "__report_output__"
)

// Agent model config names expected in the [agent_models] section.
const (
	VisionAgentName = "vision"
	ReportAgentName = "report"
)

// Command names, exported so callers can attribute chain errors to the
// step that produced them.
const (
	FrameExtractCommandName  = "extract-frames"
	FrameAnalysisCommandName = "analyze-frames"
	ReportCommandName        = "synthesize-report"
)

// VideoAnalysisWorkflow orchestrates the full analysis of one uploaded
// video file. It's structured as a Chain of Responsibility (cor.Chain)
// whose commands sample frames, describe them, and aggregate the report.
//
// The workflow is triggered synchronously by the HTTP upload handler: the
// initial context input is the local path to the uploaded video file.
type VideoAnalysisWorkflow struct {
	cor.BaseCommand
	config         *cloud.Config
	visionModel    cloud.ContentGenerator
	reportModel    cloud.ContentGenerator
	frameTemplate  *template.Template
	reportTemplate *template.Template
	chain          cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire video analysis workflow by invoking the
// underlying chain. The context carries the video path in and the frame
// results plus report out.
func (w *VideoAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up this
// workflow. The output of each command is piped to the next.
func (w *VideoAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Run ffmpeg against the uploaded video and sample one frame
	// per configured interval into a tracked scratch directory. A video
	// that yields zero frames stops the chain here.
	frameExtract := commands.NewFrameExtractCommand(FrameExtractCommandName, w.config)
	frameExtract.BaseCommand.OutputParamName = FramePathsParamName
	out.AddCommand(frameExtract)

	// Step 2: Describe every frame, in order, with the vision model. A
	// failed frame becomes an error-string entry; the batch never aborts.
	frameAnalysis := commands.NewFrameAnalysisCommand(FrameAnalysisCommandName, w.config, w.visionModel, w.frameTemplate)
	frameAnalysis.BaseCommand.OutputParamName = FrameResultsParamName
	out.AddCommand(frameAnalysis)

	// Step 3: Aggregate the timestamped descriptions into the structured
	// editorial report. On any synthesis failure this emits the fallback
	// error report rather than failing the chain.
	synthesis := commands.NewReportSynthesisCommand(ReportCommandName, w.reportModel, w.reportTemplate)
	synthesis.BaseCommand.OutputParamName = ReportParamName
	out.AddCommand(synthesis)

	w.chain = out
}

// NewVideoAnalysisPipeline is the constructor for the VideoAnalysisWorkflow.
// It compiles the prompt templates from the configuration and initializes
// the command chain. The two models are taken as ContentGenerator so the
// pipeline can run against the quota-aware production models or an
// in-memory substitute.
func NewVideoAnalysisPipeline(
	config *cloud.Config,
	visionModel cloud.ContentGenerator,
	reportModel cloud.ContentGenerator) *VideoAnalysisWorkflow {

	frameTemplate, err := template.New("frame-template").Parse(config.PromptTemplates.FramePrompt)
	if err != nil {
		panic(err) // The app cannot run without valid templates.
	}
	reportTemplate, err := template.New("report-template").Parse(config.PromptTemplates.ReportPrompt)
	if err != nil {
		panic(err)
	}

	pipeline := &VideoAnalysisWorkflow{
		BaseCommand:    *cor.NewBaseCommand("video-analysis-pipeline"),
		config:         config,
		visionModel:    visionModel,
		reportModel:    reportModel,
		frameTemplate:  frameTemplate,
		reportTemplate: reportTemplate,
	}
	pipeline.initializeChain()
	return pipeline
}
