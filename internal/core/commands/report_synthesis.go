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

package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/cor"
	"github.com/vidreport/go-video-report/internal/core/model"
	"google.golang.org/genai"
)

// ReportSynthesisCommand aggregates the per-frame descriptions into the
// final structured editorial report. It never fails the chain: when the
// report model call or the JSON decode goes wrong, the command emits the
// fallback error report instead so the caller always receives a report
// with the expected shape.
type ReportSynthesisCommand struct {
	cor.BaseCommand
	generativeAIModel        cloud.ContentGenerator
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	fallbackCounter          metric.Int64Counter
}

// ReportPromptParams are the substitution values for the report prompt
// template.
type ReportPromptParams struct {
	FrameLines    string
	FrameCount    int
	TotalDuration string
	ExampleJSON   string
}

// NewReportSynthesisCommand is the constructor for the synthesis command.
func NewReportSynthesisCommand(
	name string,
	generativeAIModel cloud.ContentGenerator,
	template *template.Template) *ReportSynthesisCommand {

	out := &ReportSynthesisCommand{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template,
	}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.fallbackCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.report.fallback", out.GetName()))

	return out
}

// Execute builds the report prompt from the frame results and decodes the
// model's JSON response into a model.Report.
func (c *ReportSynthesisCommand) Execute(context cor.Context) {
	frameResults := context.Get(c.GetInputParam()).([]*model.FrameResult)

	report, err := c.synthesize(context, frameResults)
	if err != nil {
		c.fallbackCounter.Add(context.GetContext(), 1)
		slog.Error("report synthesis failed, emitting fallback report", "error", err)
		report = model.NewFallbackReport(err)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), report)
	context.Add(cor.CtxOut, report)
}

func (c *ReportSynthesisCommand) synthesize(context cor.Context, frameResults []*model.FrameResult) (*model.Report, error) {
	exampleBytes, err := json.Marshal(model.GetExampleReport())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal example report: %w", err)
	}

	var lines strings.Builder
	var totalDuration float64
	for _, frame := range frameResults {
		lines.WriteString(fmt.Sprintf("%s | %s\n", frame.Timestamp, frame.Content))
		totalDuration = frame.TimeSeconds
	}

	params := ReportPromptParams{
		FrameLines:    lines.String(),
		FrameCount:    len(frameResults),
		TotalDuration: fmt.Sprintf("%.1f", totalDuration),
		ExampleJSON:   string(exampleBytes),
	}

	var buffer bytes.Buffer
	if err := c.template.Execute(&buffer, params); err != nil {
		return nil, fmt.Errorf("failed to execute report prompt template: %w", err)
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{cloud.NewTextPart(buffer.String())},
			Role:  "user",
		},
	}

	response, err := cloud.GenerateMultiModalResponse(
		context.GetContext(),
		c.geminiInputTokenCounter,
		c.geminiOutputTokenCounter,
		c.generativeAIModel,
		contents)
	if err != nil {
		return nil, fmt.Errorf("report model call failed: %w", err)
	}

	report := &model.Report{}
	if err := json.Unmarshal([]byte(response), report); err != nil {
		return nil, fmt.Errorf("failed to decode report JSON: %w", err)
	}
	return report, nil
}
