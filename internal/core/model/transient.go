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

// Package model defines the data structures for the application. This file
// holds the transient types: values that are passed between commands,
// services and the API but are not stored as media documents themselves.
package model

import (
	"sync/atomic"
	"time"
)

// AudioFormat describes the audio track extracted from a session video.
type AudioFormat struct {
	Codec      string // ffmpeg encoder, e.g. "libmp3lame"
	Extension  string // e.g. "mp3"
	MIMEType   string // e.g. "audio/mpeg"
	SampleRate int    // e.g. 44100
	Channels   int    // 1 for mono, 2 for stereo
}

// DefaultAudioFormat is mono MP3, which keeps floor recordings small enough
// for transcription.
func DefaultAudioFormat() *AudioFormat {
	return &AudioFormat{
		Codec:      "libmp3lame",
		Extension:  "mp3",
		MIMEType:   "audio/mpeg",
		SampleRate: 44100,
		Channels:   1,
	}
}

// ListFilter narrows a collection listing.
type ListFilter struct {
	Year     string
	Category string
	Search   string
	Limit    int
}

// DefaultListLimit caps listings when the caller gives no limit.
const DefaultListLimit = 100

// RelatedMedia is the response of a relationship lookup for one record.
type RelatedMedia struct {
	Source             *MediaRecord `json:"source"`
	Video              *MediaRecord `json:"video,omitempty"`
	Audio              *MediaRecord `json:"audio,omitempty"`
	Transcript         *MediaRecord `json:"transcript,omitempty"`
	VideoStrategy      string       `json:"video_strategy,omitempty"`
	AudioStrategy      string       `json:"audio_strategy,omitempty"`
	TranscriptStrategy string       `json:"transcript_strategy,omitempty"`
}

// MediaStats counts documents per collection.
type MediaStats struct {
	Videos      int64 `json:"videos"`
	Audio       int64 `json:"audio"`
	Transcripts int64 `json:"transcripts"`
	Total       int64 `json:"total"`
}

// FilterOptions are the distinct values a client can filter listings by.
type FilterOptions struct {
	Years      []string `json:"years"`
	Categories []string `json:"categories"`
}

// LinkReport is one row of the relationship audit table. Every cross
// reference the linker resolves is recorded along with the strategy that
// found it.
type LinkReport struct {
	RunID      string    `bigquery:"run_id" json:"run_id"`
	SourceID   string    `bigquery:"source_id" json:"source_id"`
	SourceKind string    `bigquery:"source_kind" json:"source_kind"`
	TargetKind string    `bigquery:"target_kind" json:"target_kind"`
	TargetID   string    `bigquery:"target_id" json:"target_id"`
	Strategy   string    `bigquery:"strategy" json:"strategy"`
	Updated    bool      `bigquery:"updated" json:"updated"`
	DryRun     bool      `bigquery:"dry_run" json:"dry_run"`
	LinkedAt   time.Time `bigquery:"linked_at" json:"linked_at"`
}

// StrategyCount is one row of the strategy breakdown query.
type StrategyCount struct {
	Strategy string `bigquery:"strategy" json:"strategy"`
	Links    int64  `bigquery:"links" json:"links"`
}

// LinkStats summarises one link run. The counters are updated concurrently
// by the link workers.
type LinkStats struct {
	Processed atomic.Int64
	Updated   atomic.Int64
	Unmatched atomic.Int64
	Errors    atomic.Int64
}

// LinkSummary is a point in time copy of LinkStats.
type LinkSummary struct {
	RunID     string `json:"run_id"`
	Processed int64  `json:"processed"`
	Updated   int64  `json:"updated"`
	Unmatched int64  `json:"unmatched"`
	Errors    int64  `json:"errors"`
	DryRun    bool   `json:"dry_run"`
}

// Summary snapshots the counters.
func (s *LinkStats) Summary(runID string, dryRun bool) *LinkSummary {
	return &LinkSummary{
		RunID:     runID,
		Processed: s.Processed.Load(),
		Updated:   s.Updated.Load(),
		Unmatched: s.Unmatched.Load(),
		Errors:    s.Errors.Load(),
		DryRun:    dryRun,
	}
}
