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

package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// memStore is an in-memory MediaStore that keeps insertion order and hands
// out copies, like a real document store.
type memStore struct {
	mu        sync.Mutex
	records   map[model.MediaKind]map[string]*model.MediaRecord
	order     map[model.MediaKind][]string
	listCalls atomic.Int64
	getCalls  atomic.Int64
	getErr    error
}

func newMemStore(records ...*model.MediaRecord) *memStore {
	s := &memStore{
		records: make(map[model.MediaKind]map[string]*model.MediaRecord),
		order:   make(map[model.MediaKind][]string),
	}
	for _, r := range records {
		_ = s.Save(context.Background(), r)
	}
	return s
}

func (s *memStore) Get(_ context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error) {
	s.getCalls.Add(1)
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[kind][id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *memStore) List(_ context.Context, kind model.MediaKind, filter model.ListFilter) ([]*model.MediaRecord, error) {
	s.listCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.MediaRecord, 0)
	for _, id := range s.order[kind] {
		rec := s.records[kind][id]
		if filter.Year != "" && rec.Year != filter.Year {
			continue
		}
		if filter.Category != "" && rec.Category != filter.Category {
			continue
		}
		if !services.MatchesSearch(rec, filter.Search) {
			continue
		}
		out = append(out, rec.Clone())
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, rec *model.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[rec.Kind] == nil {
		s.records[rec.Kind] = make(map[string]*model.MediaRecord)
	}
	if _, exists := s.records[rec.Kind][rec.ID]; !exists {
		s.order[rec.Kind] = append(s.order[rec.Kind], rec.ID)
	}
	s.records[rec.Kind][rec.ID] = rec.Clone()
	return nil
}

func (s *memStore) UpdateRelations(_ context.Context, rel model.Relation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[rel.SourceKind][rel.SourceID]
	if !ok {
		return errors.Join(services.ErrNotFound, errors.New(rel.SourceID))
	}
	rec.SetRelated(rel.TargetKind, rel.TargetID, rel.TargetURL)
	return nil
}

func (s *memStore) Count(_ context.Context, kind model.MediaKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records[kind])), nil
}

// peek returns the stored record without counting a Get.
func (s *memStore) peek(kind model.MediaKind, id string) *model.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[kind][id].Clone()
}

type memReporter struct {
	mu   sync.Mutex
	rows []*model.LinkReport
}

func (r *memReporter) Report(_ context.Context, rows []*model.LinkReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

const urlPrefix = "https://storage.googleapis.com"

func sessionRecords() (video, audio, transcript *model.MediaRecord) {
	video = &model.MediaRecord{
		ID: "v1", Kind: model.KindVideo, Title: "House Chambers - Session Day 19", Year: "2025",
		Category: model.ChamberHouse, SessionName: "House Chambers - Session Day 19", SessionID: "S1",
		URL: urlPrefix + "/legislative-media-video/video/2025/House%20Chambers/19/2025-01-24_HouseChambers_Day19.mp4",
	}
	audio = &model.MediaRecord{
		ID: "a1", Kind: model.KindAudio, Title: "House Chambers - Session Day 19", Year: "2025",
		Category: model.ChamberHouse, SessionID: "S1",
		URL: urlPrefix + "/legislative-media-audio/audio/2025/House%20Chambers/19/2025-01-24_HouseChambers_Day19.mp3",
	}
	transcript = &model.MediaRecord{
		ID: "t1", Kind: model.KindTranscript, Title: "House Chambers - Session Day 19", Year: "2025",
		Category: model.ChamberHouse, SessionID: "S1", Content: "The House will come to order.",
		URL: urlPrefix + "/legislative-media-transcripts/transcript/2025/House%20Chambers/19/2025-01-24_HouseChambers_Day19.txt",
	}
	return video, audio, transcript
}
