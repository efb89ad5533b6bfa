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

// Package services sits between the HTTP layer and the analysis workflow.
// The AnalysisService owns upload validation, scratch-space lifecycle, the
// pipeline run, and the error taxonomy the handlers translate to status
// codes.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/vidreport/go-video-report/internal/core/cor"
	"github.com/vidreport/go-video-report/internal/core/model"
	"github.com/vidreport/go-video-report/internal/core/workflow"
)

// PipelineProvider yields the analysis pipeline for one request. Under the
// strict startup policy the same prebuilt pipeline is returned every time;
// under the lazy policy the provider retries client initialization on each
// call and returns an error until it succeeds.
type PipelineProvider func() (*workflow.VideoAnalysisWorkflow, error)

// AnalysisService runs the video analysis workflow for uploaded files and
// records the resulting reports.
type AnalysisService struct {
	provider PipelineProvider
	store    *ReportStore
}

// NewAnalysisService is the constructor for AnalysisService.
func NewAnalysisService(provider PipelineProvider, store *ReportStore) *AnalysisService {
	return &AnalysisService{provider: provider, store: store}
}

// Store exposes the report store for the read-side handlers.
func (s *AnalysisService) Store() *ReportStore { return s.store }

// Analyze saves the uploaded video to scratch space, runs the pipeline,
// and returns the finished result. All scratch files are removed before
// this returns, success or not. Errors are always *AnalysisError.
func (s *AnalysisService) Analyze(ctx context.Context, sessionKey string, filename string, video io.Reader) (*model.AnalysisResult, error) {
	if filename == "" {
		return nil, NewAnalysisError(KindNoFile, "no video file in request", nil)
	}

	pipeline, err := s.provider()
	if err != nil {
		return nil, NewAnalysisError(KindNotConfigured, "generative AI backend unavailable", err)
	}

	chainCtx := cor.NewBaseContext(ctx)
	defer chainCtx.Close()

	videoPath, err := saveUpload(chainCtx, filename, video)
	if err != nil {
		return nil, err
	}

	analysisID := uuid.NewString()
	slog.InfoContext(ctx, "starting video analysis", "analysis_id", analysisID, "filename", filename)

	chainCtx.Add(cor.CtxIn, videoPath)
	pipeline.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return nil, classifyChainErrors(chainCtx.GetErrors())
	}

	report, ok := chainCtx.Get(workflow.ReportParamName).(*model.Report)
	if !ok || report == nil {
		return nil, NewAnalysisError(KindInternal, "pipeline produced no report", nil)
	}

	totalFrames := 0
	if frames, ok := chainCtx.Get(workflow.FrameResultsParamName).([]*model.FrameResult); ok {
		totalFrames = len(frames)
	}

	s.store.Put(sessionKey, report)
	slog.InfoContext(ctx, "video analysis complete", "analysis_id", analysisID, "total_frames", totalFrames, "genre", report.Genre)

	return &model.AnalysisResult{
		Success:     true,
		AnalysisID:  analysisID,
		TotalFrames: totalFrames,
		Report:      report,
	}, nil
}

// saveUpload copies the uploaded stream into a tracked scratch directory
// and rejects files whose magic bytes identify a non-video format. Files
// of unrecognized type are let through so ffmpeg can make the final call.
// The returned error is nil or a non-nil *AnalysisError.
func saveUpload(chainCtx cor.Context, filename string, video io.Reader) (string, error) {
	uploadDir, err := os.MkdirTemp("", "upload-")
	if err != nil {
		return "", NewAnalysisError(KindInternal, "failed to create scratch directory", err)
	}
	chainCtx.AddTempDir(uploadDir)

	videoPath := filepath.Join(uploadDir, filepath.Base(filename))
	out, err := os.Create(videoPath)
	if err != nil {
		return "", NewAnalysisError(KindInternal, "failed to create upload file", err)
	}
	if _, err := io.Copy(out, video); err != nil {
		_ = out.Close()
		return "", NewAnalysisError(KindInternal, "failed to save upload", err)
	}
	if err := out.Close(); err != nil {
		return "", NewAnalysisError(KindInternal, "failed to save upload", err)
	}

	header := make([]byte, 262)
	in, err := os.Open(videoPath)
	if err != nil {
		return "", NewAnalysisError(KindInternal, "failed to reopen upload", err)
	}
	n, _ := io.ReadFull(in, header)
	_ = in.Close()

	kind, _ := filetype.Match(header[:n])
	if kind != filetype.Unknown && !filetype.IsVideo(header[:n]) {
		return "", NewAnalysisError(KindNoFile, fmt.Sprintf("uploaded file is not a video (detected %s)", kind.MIME.Value), nil)
	}
	return videoPath, nil
}

// classifyChainErrors maps command-level chain errors onto the service
// error taxonomy.
func classifyChainErrors(errs map[string]error) *AnalysisError {
	for name, err := range errs {
		if name == workflow.FrameExtractCommandName {
			return NewAnalysisError(KindExtraction, "frame extraction failed", err)
		}
	}
	for name, err := range errs {
		return NewAnalysisError(KindInternal, fmt.Sprintf("pipeline command %q failed", name), err)
	}
	return NewAnalysisError(KindInternal, "pipeline failed", nil)
}
