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

// Package model defines the core data structures for the application. This
// file provides factory functions for hardcoded example instances used for
// few-shot prompting: embedding a concrete, well-formed JSON example in the
// report prompt keeps the model's output consistent and parsable.
package model

// GetExampleReport creates a sample Report used as the few-shot example in
// the synthesis prompt. It shows the model the exact schema expected,
// including the fixed part names and numbered advice titles.
func GetExampleReport() *Report {
	out := &Report{
		Genre:           "ビジネス解説系",
		GenreConfidence: "85",
		GenreReason:     "スライド資料と話者のアップが交互に現れ、解説形式の構成が続くため。",
		Parts:           make([]ReportPart, 0, len(PartNames)),
		Advice:          make([]AdviceItem, 0, len(AdviceTitles)),
	}
	ranges := [4]string{"0:00-0:15", "0:15-0:30", "0:30-0:45", "0:45-1:00"}
	for i, name := range PartNames {
		out.Parts = append(out.Parts, ReportPart{
			Name:      name,
			TimeRange: ranges[i],
			Summary:   "このパートの内容要約",
		})
	}
	for _, title := range AdviceTitles {
		out.Advice = append(out.Advice, AdviceItem{
			Title:   title,
			Content: "具体的なアドバイス",
		})
	}
	return out
}
