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

// Package test provides utility functions and mock objects to support the
// application's test suite: an in-memory test configuration, a fake
// generative model, and a stub ffmpeg binary so workflows run hermetically
// with no API key and no real video decoding.
package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vidreport/go-video-report/internal/cloud"
	"google.golang.org/genai"
)

// HandleErr fails the test when err is not nil. A convenience to reduce
// boilerplate error checks in tests.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetConfig builds a complete in-memory configuration for tests. No TOML
// files are read, so tests do not depend on the working directory.
func GetConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.Name = "video-report-test"
	config.Application.Port = 0
	config.FFmpeg.IntervalSeconds = 1.0
	config.FFmpeg.Quality = 2
	config.PromptTemplates.FramePrompt = "この画像を1行で説明してください。"
	config.PromptTemplates.ReportPrompt = "フレーム数: {{.FrameCount}}\n長さ: {{.TotalDuration}}\n{{.FrameLines}}\n例: {{.ExampleJSON}}"
	config.AgentModels["vision"] = cloud.GenerativeLLMModel{
		Model:        "test-vision",
		Temperature:  0.2,
		MaxTokens:    100,
		OutputFormat: "text/plain",
		RateLimit:    100,
	}
	config.AgentModels["report"] = cloud.GenerativeLLMModel{
		Model:        "test-report",
		Temperature:  0.2,
		MaxTokens:    2000,
		OutputFormat: "application/json",
		RateLimit:    100,
	}
	return config
}

// FakeContentGenerator is an in-memory cloud.ContentGenerator. Responses
// are served in order, with the last one repeating; individual calls can
// be forced to fail via Errs, keyed by 1-based call number.
type FakeContentGenerator struct {
	mu        sync.Mutex
	Responses []string
	Errs      map[int]error
	Calls     int
}

// NewFakeGenerator builds a fake model that cycles through the given
// responses.
func NewFakeGenerator(responses ...string) *FakeContentGenerator {
	return &FakeContentGenerator{Responses: responses, Errs: make(map[int]error)}
}

// FailCall forces the nth call (1-based) to return err.
func (f *FakeContentGenerator) FailCall(n int, err error) *FakeContentGenerator {
	f.Errs[n] = err
	return f
}

// CallCount returns how many times GenerateContent has been invoked.
func (f *FakeContentGenerator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// GenerateContent satisfies cloud.ContentGenerator.
func (f *FakeContentGenerator) GenerateContent(_ context.Context, _ []*genai.Content) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++

	if err, ok := f.Errs[f.Calls]; ok {
		return nil, err
	}

	idx := f.Calls - 1
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	text := ""
	if idx >= 0 {
		text = f.Responses[idx]
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 5,
		},
	}, nil
}

// WriteStubFFmpeg writes an executable shell script that imitates the
// frame sampling call: it ignores its flags and populates the output
// directory (taken from the final pattern argument) with frameCount JPEG
// files. Returns the script path to set as cloud.Config.FFmpeg.Path.
func WriteStubFFmpeg(t *testing.T, frameCount int) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "-version" ]; then exit 0; fi
for last; do :; done
out=$(dirname "$last")
i=1
while [ "$i" -le %d ]; do
  printf 'jpegdata' > "$out/$(printf 'frame_%%04d.jpg' "$i")"
  i=$((i+1))
done
`, frameCount)
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write stub ffmpeg: %v", err)
	}
	return script
}

// TestVideoBytes returns a minimal MP4 file header so upload sniffing
// recognizes the payload as video.
func TestVideoBytes() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00,
		'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
}
