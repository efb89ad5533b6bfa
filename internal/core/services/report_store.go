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

package services

import (
	"sync"
	"time"

	"github.com/vidreport/go-video-report/internal/core/model"
)

// ReportStore keeps the most recent report per session plus the overall
// latest, in memory only. Reports do not survive a restart; there is no
// database behind this service.
type ReportStore struct {
	mu        sync.RWMutex
	bySession map[string]*model.StoredReport
	latest    *model.StoredReport
}

// NewReportStore is the constructor for ReportStore.
func NewReportStore() *ReportStore {
	return &ReportStore{bySession: make(map[string]*model.StoredReport)}
}

// Put records a finished report for the given session key and promotes it
// to the overall latest.
func (s *ReportStore) Put(sessionKey string, report *model.Report) {
	stored := &model.StoredReport{Report: report, GeneratedAt: time.Now().UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionKey != "" {
		s.bySession[sessionKey] = stored
	}
	s.latest = stored
}

// Get returns the report for the session, falling back to the overall
// latest when the session has none. The second return is false when no
// report has been generated at all.
func (s *ReportStore) Get(sessionKey string) (*model.StoredReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stored, ok := s.bySession[sessionKey]; ok {
		return stored, true
	}
	if s.latest != nil {
		return s.latest, true
	}
	return nil, false
}
