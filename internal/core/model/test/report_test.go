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

// Package model_test verifies the report data model: timestamp formatting,
// the fallback error report, and the JSON wire shape the frontend parses.
package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidreport/go-video-report/internal/core/model"
)

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:01.0", model.FormatTimestamp(1.0))
	assert.Equal(t, "00:02.0", model.FormatTimestamp(2.0))
	assert.Equal(t, "00:30.5", model.FormatTimestamp(30.5))
	assert.Equal(t, "01:00.0", model.FormatTimestamp(60.0))
	assert.Equal(t, "01:05.5", model.FormatTimestamp(65.5))
	assert.Equal(t, "02:10.0", model.FormatTimestamp(130.0))
}

func TestFallbackReport(t *testing.T) {
	report := model.NewFallbackReport(errors.New("boom"))

	assert.Equal(t, model.ErrorGenre, report.Genre)
	assert.Equal(t, "0", report.GenreConfidence)
	assert.Contains(t, report.GenreReason, "分析中にエラーが発生しました")
	assert.Contains(t, report.GenreReason, "boom")

	// The shape must match a successful report so the frontend renders it
	// without special casing: slices present, just empty.
	assert.NotNil(t, report.Parts)
	assert.Empty(t, report.Parts)
	assert.NotNil(t, report.Advice)
	assert.Empty(t, report.Advice)
}

func TestExampleReportShape(t *testing.T) {
	report := model.GetExampleReport()

	assert.Len(t, report.Parts, 4)
	for i, part := range report.Parts {
		assert.Equal(t, model.PartNames[i], part.Name)
		assert.NotEmpty(t, part.TimeRange)
		assert.NotEmpty(t, part.Summary)
	}

	assert.Len(t, report.Advice, 7)
	for i, item := range report.Advice {
		assert.Equal(t, model.AdviceTitles[i], item.Title)
		assert.NotEmpty(t, item.Content)
	}
}

func TestReportWireFormat(t *testing.T) {
	data, err := json.Marshal(model.GetExampleReport())
	assert.NoError(t, err)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &decoded))

	// The frontend keys off these exact field names.
	assert.Contains(t, decoded, "genre")
	assert.Contains(t, decoded, "genre_confidence")
	assert.Contains(t, decoded, "genre_reason")
	assert.Contains(t, decoded, "parts")
	assert.Contains(t, decoded, "advice")

	parts := decoded["parts"].([]interface{})
	first := parts[0].(map[string]interface{})
	assert.Contains(t, first, "name")
	assert.Contains(t, first, "timerange")
	assert.Contains(t, first, "summary")
}
