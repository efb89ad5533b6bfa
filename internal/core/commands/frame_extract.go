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
// up the analysis pipeline. This file defines the command that invokes the
// external ffmpeg tool to sample a video into still JPEG frames.
//
// Logic flow:
//  1. Take the saved video path from the chain context.
//  2. Create a scratch directory for the frames and track it on the context
//     so it is removed on every exit path.
//  3. Run ffmpeg with an fps filter of one frame per configured interval and
//     a sequential output pattern.
//  4. List the produced frames in filename order; zero frames is an error
//     that stops the chain before any model call is made.
package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vidreport/go-video-report/internal/cloud"
	"github.com/vidreport/go-video-report/internal/core/cor"
)

const (
	// FramePattern is the sequential output file pattern handed to ffmpeg.
	FramePattern = "frame_%04d.jpg"
	// frameGlob matches the files FramePattern produces.
	frameGlob = "frame_*.jpg"
	// FramesDirPrefix names the scratch directories holding sampled frames.
	FramesDirPrefix = "frames-"
)

// FrameExtractCommand wraps the execution of ffmpeg to sample a video file
// into sequentially numbered JPEG frames. Any tool failure is fatal for the
// request; there is no retry.
type FrameExtractCommand struct {
	cor.BaseCommand
	commandPath string  // Path to the ffmpeg executable.
	interval    float64 // Seconds between sampled frames.
	quality     int     // JPEG quality for -q:v.
}

// NewFrameExtractCommand constructs the frame sampler from the ffmpeg
// section of the config.
func NewFrameExtractCommand(name string, config *cloud.Config) *FrameExtractCommand {
	return &FrameExtractCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		commandPath: config.FFmpeg.Path,
		interval:    config.FFmpeg.IntervalSeconds,
		quality:     config.FFmpeg.Quality,
	}
}

// Execute runs ffmpeg over the input video and places the ordered list of
// frame paths into the context.
func (c *FrameExtractCommand) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)

	framesDir, err := os.MkdirTemp("", FramesDirPrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to create frames directory: %w", err))
		return
	}
	context.AddTempDir(framesDir)

	// fps=1/interval emits one frame per interval seconds.
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%s", strconv.FormatFloat(c.interval, 'g', -1, 64)),
		"-q:v", strconv.Itoa(c.quality),
		filepath.Join(framesDir, FramePattern),
	}
	cmd := exec.CommandContext(context.GetContext(), c.commandPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("error running ffmpeg: %w, output: %s", err, string(out)))
		return
	}

	frames, err := filepath.Glob(filepath.Join(framesDir, frameGlob))
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to list frames: %w", err))
		return
	}
	if len(frames) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no frames extracted from video"))
		return
	}
	// Glob order is not guaranteed; the sequential pattern sorts correctly
	// by name.
	sort.Strings(frames)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), frames)
	context.Add(cor.CtxOut, frames)
}
