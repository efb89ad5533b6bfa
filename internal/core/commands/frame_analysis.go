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

// Package commands provides the concrete Command implementations that make
// up the analysis pipeline. This file defines the per-frame vision analysis
// step.
//
// Logic flow:
//  1. Take the ordered frame paths from the chain context.
//  2. For each frame, in order: compute the display timestamp (1-based index
//     times the sampling interval), read the JPEG, and send the instruction
//     prompt plus the inline image to the vision model.
//  3. On any failure for a frame (read or remote), substitute an error
//     string as that frame's content and keep going. One bad frame must not
//     abort the batch; this is the pipeline's only failure-isolation point.
//
// The loop is intentionally sequential: one in-flight model call per
// request, wall-clock time linear in frame count.
package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/cor"
	"github.com/vidreport/go-video-report/internal/core/model"
	"google.golang.org/genai"
)

// FrameAnalysisCommand sends each sampled frame to the vision model for a
// one-line description and accumulates the results in frame order.
type FrameAnalysisCommand struct {
	cor.BaseCommand
	generativeAIModel        cloud.ContentGenerator // The rate-limited vision model.
	template                 *template.Template     // The per-frame instruction prompt.
	interval                 float64                // Sampling interval, for timestamp computation.
	geminiInputTokenCounter  metric.Int64Counter    // OTel counter for prompt tokens.
	geminiOutputTokenCounter metric.Int64Counter    // OTel counter for response tokens.
	frameErrorCounter        metric.Int64Counter    // OTel counter for isolated per-frame failures.
}

// NewFrameAnalysisCommand is the constructor for the per-frame analysis
// command.
func NewFrameAnalysisCommand(
	name string,
	config *cloud.Config,
	generativeAIModel cloud.ContentGenerator,
	template *template.Template) *FrameAnalysisCommand {

	out := &FrameAnalysisCommand{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template,
		interval:          config.FFmpeg.IntervalSeconds,
	}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.frameErrorCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.frame.error", out.GetName()))

	return out
}

// Execute analyzes every frame in order and places the accumulated
// []*model.FrameResult into the context. It records an error on the chain
// only when the prompt template itself is broken; frame-level failures are
// downgraded to error strings.
func (c *FrameAnalysisCommand) Execute(context cor.Context) {
	frames := context.Get(c.GetInputParam()).([]string)

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, nil); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to execute frame prompt template: %w", err))
		return
	}
	instruction := buffer.String()

	results := make([]*model.FrameResult, 0, len(frames))
	for i, framePath := range frames {
		offset := float64(i+1) * c.interval
		result := &model.FrameResult{
			Timestamp:   model.FormatTimestamp(offset),
			TimeSeconds: offset,
		}

		content, err := c.analyzeFrame(context, instruction, framePath)
		if err != nil {
			// Isolation: the frame carries the error, the batch continues.
			c.frameErrorCounter.Add(context.GetContext(), 1)
			slog.Warn("frame analysis failed", "frame", i+1, "error", err)
			result.Content = fmt.Sprintf("エラー: %v", err)
		} else {
			result.Content = content
		}
		results = append(results, result)
		slog.Info("frame analyzed", "frame", i+1, "total", len(frames))
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), results)
	context.Add(cor.CtxOut, results)
}

// analyzeFrame issues the single multimodal request for one frame.
func (c *FrameAnalysisCommand) analyzeFrame(context cor.Context, instruction string, framePath string) (string, error) {
	data, err := os.ReadFile(framePath)
	if err != nil {
		return "", fmt.Errorf("failed to read frame: %w", err)
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				cloud.NewTextPart(instruction),
				cloud.NewJPEGPart(data),
			},
			Role: "user",
		},
	}

	return cloud.GenerateMultiModalResponse(
		context.GetContext(),
		c.geminiInputTokenCounter,
		c.geminiOutputTokenCounter,
		c.generativeAIModel,
		contents)
}
