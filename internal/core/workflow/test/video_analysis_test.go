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

package workflow_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidreport/go-video-report/internal/core/cor"
	"github.com/vidreport/go-video-report/internal/core/model"
	"github.com/vidreport/go-video-report/internal/core/workflow"
	test "github.com/vidreport/go-video-report/internal/testutil"
)

// writeTempVideo drops a minimal video file into a per-test directory.
func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.mp4")
	if err := os.WriteFile(path, test.TestVideoBytes(), 0o644); err != nil {
		t.Fatalf("failed to write test video: %v", err)
	}
	return path
}

// exampleReportJSON renders the canonical example report the way the
// report model would return it.
func exampleReportJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(model.GetExampleReport())
	test.HandleErr(err, t)
	return string(data)
}

func TestVideoAnalysisWorkflow(t *testing.T) {
	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, 3)

	vision := test.NewFakeGenerator("内容: オープニング映像 | テキスト: なし")
	report := test.NewFakeGenerator(exampleReportJSON(t))

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	c := cor.NewBaseContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, writeTempVideo(t))

	pipeline.Execute(c)

	assert.False(t, c.HasErrors())

	frames := c.Get(workflow.FrameResultsParamName).([]*model.FrameResult)
	assert.Len(t, frames, 3)
	assert.Equal(t, "00:01.0", frames[0].Timestamp)
	assert.Equal(t, "00:02.0", frames[1].Timestamp)
	assert.Equal(t, "00:03.0", frames[2].Timestamp)
	assert.Equal(t, 3, vision.CallCount())

	out := c.Get(workflow.ReportParamName).(*model.Report)
	assert.Equal(t, "ビジネス解説系", out.Genre)
	assert.Len(t, out.Parts, 4)
	assert.Len(t, out.Advice, 7)
	assert.Equal(t, 1, report.CallCount())
}

func TestFrameFailureIsolation(t *testing.T) {
	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, 3)

	vision := test.NewFakeGenerator("内容: 通常シーン | テキスト: なし").
		FailCall(2, errors.New("quota exceeded"))
	report := test.NewFakeGenerator(exampleReportJSON(t))

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	c := cor.NewBaseContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, writeTempVideo(t))

	pipeline.Execute(c)

	// One bad frame must not fail the batch or the chain.
	assert.False(t, c.HasErrors())

	frames := c.Get(workflow.FrameResultsParamName).([]*model.FrameResult)
	assert.Len(t, frames, 3)
	assert.True(t, strings.HasPrefix(frames[1].Content, "エラー:"))
	assert.False(t, strings.HasPrefix(frames[0].Content, "エラー:"))
	assert.False(t, strings.HasPrefix(frames[2].Content, "エラー:"))

	// The failed frame keeps its timestamp so the report still lines up.
	assert.Equal(t, "00:02.0", frames[1].Timestamp)

	out := c.Get(workflow.ReportParamName).(*model.Report)
	assert.NotEqual(t, model.ErrorGenre, out.Genre)
}

func TestSynthesisFallback(t *testing.T) {
	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, 2)

	vision := test.NewFakeGenerator("内容: シーン | テキスト: なし")
	report := test.NewFakeGenerator("これはJSONではありません")

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	c := cor.NewBaseContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, writeTempVideo(t))

	pipeline.Execute(c)

	// Synthesis failures degrade to the fallback report, not a chain error.
	assert.False(t, c.HasErrors())

	out := c.Get(workflow.ReportParamName).(*model.Report)
	assert.Equal(t, model.ErrorGenre, out.Genre)
	assert.Equal(t, "0", out.GenreConfidence)
	assert.NotNil(t, out.Parts)
	assert.Empty(t, out.Parts)
	assert.NotNil(t, out.Advice)
	assert.Empty(t, out.Advice)
}

func TestZeroFramesStopsChain(t *testing.T) {
	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, 0)

	vision := test.NewFakeGenerator("内容: シーン | テキスト: なし")
	report := test.NewFakeGenerator(exampleReportJSON(t))

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	c := cor.NewBaseContext(ctx)
	defer c.Close()
	c.Add(cor.CtxIn, writeTempVideo(t))

	pipeline.Execute(c)

	assert.True(t, c.HasErrors())
	assert.Contains(t, c.GetErrors(), workflow.FrameExtractCommandName)
	assert.Equal(t, 0, vision.CallCount())
	assert.Nil(t, c.Get(workflow.ReportParamName))
}

func TestScratchCleanup(t *testing.T) {
	cfg := test.GetConfig()
	cfg.FFmpeg.Path = test.WriteStubFFmpeg(t, 2)

	vision := test.NewFakeGenerator("内容: シーン | テキスト: なし")
	report := test.NewFakeGenerator(exampleReportJSON(t))

	pipeline := workflow.NewVideoAnalysisPipeline(cfg, vision, report)
	c := cor.NewBaseContext(ctx)
	c.Add(cor.CtxIn, writeTempVideo(t))

	pipeline.Execute(c)

	dirs := c.GetTempDirs()
	assert.NotEmpty(t, dirs)
	c.Close()

	for _, dir := range dirs {
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err), "scratch dir %s should be removed", dir)
	}
}
