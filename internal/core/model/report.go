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

// Package model defines the core data structures for the application. All of
// them are transient: they live in memory for the duration of one analysis
// request (plus the best-effort copy of the last report held by the report
// store) and are never persisted.
package model

import (
	"fmt"
	"time"
)

// PartNames are the fixed names of the four timeline parts of a report, in
// order. The report schema always carries exactly these four regardless of
// video length.
var PartNames = [4]string{"Aパート", "Bパート", "Cパート", "Dパート"}

// AdviceTitles are the fixed numbered titles of the seven editing-advice
// items of a report, in order.
var AdviceTitles = [7]string{
	"1. カット編集",
	"2. テロップ戦略",
	"3. BGM・効果音",
	"4. 視覚効果",
	"5. サムネイル設計",
	"6. 構成の改善",
	"7. トレンド対応",
}

// ErrorGenre is the genre marker carried by a fallback report produced when
// synthesis fails.
const ErrorGenre = "エラー"

// FrameResult is the outcome of analyzing one sampled frame. Content is
// either the model's one-line description or an error string when the remote
// call for this frame failed; a failed frame never aborts the batch.
type FrameResult struct {
	Timestamp   string  `json:"timestamp"`    // Display timestamp, "mm:ss.s".
	TimeSeconds float64 `json:"time_seconds"` // Offset of the frame, 1-based index times the sampling interval.
	Content     string  `json:"content"`      // One-line description, or an error string.
}

// ReportPart is one of the four fixed timeline segments of a report.
type ReportPart struct {
	Name      string `json:"name"`      // One of PartNames.
	TimeRange string `json:"timerange"` // e.g. "0:00-0:15".
	Summary   string `json:"summary"`   // What happens in this part.
}

// AdviceItem is one of the seven fixed editing-advice entries of a report.
type AdviceItem struct {
	Title   string `json:"title"`   // One of AdviceTitles.
	Content string `json:"content"` // The concrete advice text.
}

// Report is the final structured artifact produced for one analyzed video.
type Report struct {
	Genre           string       `json:"genre"`            // The classified genre, or ErrorGenre on fallback.
	GenreConfidence string       `json:"genre_confidence"` // Confidence percentage as a string; "0" on fallback.
	GenreReason     string       `json:"genre_reason"`     // Why the genre was chosen, or the failure detail on fallback.
	Parts           []ReportPart `json:"parts"`            // The four timeline parts; empty on fallback.
	Advice          []AdviceItem `json:"advice"`           // The seven advice items; empty on fallback.
}

// AnalysisResult is what the orchestrator returns for a successful request.
type AnalysisResult struct {
	Success     bool    `json:"success"`
	AnalysisID  string  `json:"analysis_id"`
	TotalFrames int     `json:"total_frames"`
	Report      *Report `json:"report"`
}

// StoredReport is the best-effort copy of a generated report kept in process
// memory after the request completes.
type StoredReport struct {
	Report      *Report   `json:"report"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewFallbackReport builds the degraded report returned when synthesis
// fails: error genre, zero confidence, the failure embedded in the reason,
// and empty (non-nil) parts and advice.
func NewFallbackReport(err error) *Report {
	return &Report{
		Genre:           ErrorGenre,
		GenreConfidence: "0",
		GenreReason:     fmt.Sprintf("分析中にエラーが発生しました: %v", err),
		Parts:           make([]ReportPart, 0),
		Advice:          make([]AdviceItem, 0),
	}
}

// FormatTimestamp renders a frame offset as the display form "mm:ss.s"
// (e.g. 61.0 -> "01:01.0", 3.0 -> "00:03.0").
func FormatTimestamp(seconds float64) string {
	minutes := int(seconds) / 60
	remainder := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%04.1f", minutes, remainder)
}
