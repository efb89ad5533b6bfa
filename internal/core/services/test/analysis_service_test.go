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

// Package services_test exercises the analysis service end to end against
// a stub ffmpeg and fake generative models: validation, the error
// taxonomy, and the report store.
package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidreport/go-video-report/internal/core/model"
	"github.com/vidreport/go-video-report/internal/core/services"
	"github.com/vidreport/go-video-report/internal/core/workflow"
	test "github.com/vidreport/go-video-report/internal/testutil"
)

// newTestService wires a complete service around a hermetic pipeline.
func newTestService(t *testing.T, frameCount int) (*services.AnalysisService, *test.FakeContentGenerator) {
	t.Helper()

	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, frameCount)

	exampleJSON, err := json.Marshal(model.GetExampleReport())
	test.HandleErr(err, t)

	vision := test.NewFakeGenerator("内容: シーン | テキスト: なし")
	report := test.NewFakeGenerator(string(exampleJSON))

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	provider := func() (*workflow.VideoAnalysisWorkflow, error) { return pipeline, nil }

	return services.NewAnalysisService(provider, services.NewReportStore()), vision
}

func TestAnalyzeEmptyFilename(t *testing.T) {
	svc, _ := newTestService(t, 3)

	_, err := svc.Analyze(context.Background(), "s1", "", bytes.NewReader(nil))
	var analysisErr *services.AnalysisError
	assert.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, services.KindNoFile, analysisErr.Kind)
}

func TestAnalyzeNotConfigured(t *testing.T) {
	provider := func() (*workflow.VideoAnalysisWorkflow, error) {
		return nil, errors.New("GEMINI_API_KEY not set")
	}
	svc := services.NewAnalysisService(provider, services.NewReportStore())

	_, err := svc.Analyze(context.Background(), "s1", "video.mp4", bytes.NewReader(test.TestVideoBytes()))
	var analysisErr *services.AnalysisError
	assert.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, services.KindNotConfigured, analysisErr.Kind)
}

func TestAnalyzeRejectsNonVideo(t *testing.T) {
	svc, vision := newTestService(t, 3)

	// A PNG header: recognized type, not a video.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	_, err := svc.Analyze(context.Background(), "s1", "image.png", bytes.NewReader(png))

	var analysisErr *services.AnalysisError
	assert.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, services.KindNoFile, analysisErr.Kind)
	assert.Equal(t, 0, vision.CallCount())
}

func TestAnalyzeExtractionFailure(t *testing.T) {
	svc, vision := newTestService(t, 0)

	_, err := svc.Analyze(context.Background(), "s1", "video.mp4", bytes.NewReader(test.TestVideoBytes()))
	var analysisErr *services.AnalysisError
	assert.True(t, errors.As(err, &analysisErr))
	assert.Equal(t, services.KindExtraction, analysisErr.Kind)
	assert.Equal(t, 0, vision.CallCount())
}

func TestAnalyzeSuccess(t *testing.T) {
	svc, vision := newTestService(t, 3)

	result, err := svc.Analyze(context.Background(), "s1", "video.mp4", bytes.NewReader(test.TestVideoBytes()))
	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.AnalysisID)
	assert.Equal(t, 3, result.TotalFrames)
	assert.Equal(t, "ビジネス解説系", result.Report.Genre)
	assert.Equal(t, 3, vision.CallCount())

	// The report lands in the store, keyed by session with a global latest.
	stored, ok := svc.Store().Get("s1")
	assert.True(t, ok)
	assert.Equal(t, result.Report, stored.Report)
	assert.False(t, stored.GeneratedAt.IsZero())

	other, ok := svc.Store().Get("unknown-session")
	assert.True(t, ok)
	assert.Equal(t, result.Report, other.Report)
}

func TestAnalyzeSuccessReturnsUntypedNilError(t *testing.T) {
	svc, _ := newTestService(t, 2)

	result, err := svc.Analyze(context.Background(), "s1", "video.mp4", bytes.NewReader(test.TestVideoBytes()))

	// The error must be the untyped nil: a nil *AnalysisError stored in
	// the interface would read as a failure and match errors.As with a
	// nil target.
	assert.True(t, err == nil)
	var analysisErr *services.AnalysisError
	assert.False(t, errors.As(err, &analysisErr))
	assert.NotNil(t, result)
	assert.True(t, result.Success)
}

func TestReportStoreEmpty(t *testing.T) {
	store := services.NewReportStore()
	_, ok := store.Get("nobody")
	assert.False(t, ok)
}

func TestReportStorePerSession(t *testing.T) {
	store := services.NewReportStore()

	first := model.GetExampleReport()
	second := model.NewFallbackReport(errors.New("x"))

	store.Put("a", first)
	store.Put("b", second)

	gotA, ok := store.Get("a")
	assert.True(t, ok)
	assert.Equal(t, first, gotA.Report)

	gotB, ok := store.Get("b")
	assert.True(t, ok)
	assert.Equal(t, second, gotB.Report)

	// Unknown sessions read the most recent report overall.
	latest, ok := store.Get("c")
	assert.True(t, ok)
	assert.Equal(t, second, latest.Report)
}
