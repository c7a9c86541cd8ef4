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

// Package model defines the persistent and transient data structures used by
// the legislative media portal. This file defines `MediaRecord`, the single
// document shape stored for every video, audio and transcript artifact.
//
// A record of one medium points at its siblings through a pair of
// cross-reference fields (`related_<kind>_id` / `related_<kind>_url`). Which
// pairs are populated depends on the record's kind; the accessor methods below
// address the correct pair for a requested target medium so callers never
// switch on field names.
package model

import (
	"time"

	"github.com/google/uuid"
)

// MediaKind discriminates the medium of a MediaRecord.
type MediaKind string

const (
	KindVideo      MediaKind = "video"
	KindAudio      MediaKind = "audio"
	KindTranscript MediaKind = "transcript"
	KindOther      MediaKind = "other"
)

// Kinds lists the media kinds that take part in relationship linking.
var Kinds = []MediaKind{KindVideo, KindAudio, KindTranscript}

// IDSuffix is the conventional id suffix for records of this kind, e.g. "_video".
func (k MediaKind) IDSuffix() string {
	return "_" + string(k)
}

// Collection returns the document collection that stores records of this kind.
func (k MediaKind) Collection() string {
	switch k {
	case KindVideo:
		return "videos"
	case KindAudio:
		return "audio"
	case KindTranscript:
		return "transcripts"
	default:
		return "other"
	}
}

// ParseMediaKind maps a user supplied string (singular or collection name)
// onto a MediaKind.
func ParseMediaKind(in string) (MediaKind, bool) {
	switch in {
	case "video", "videos":
		return KindVideo, true
	case "audio", "audios":
		return KindAudio, true
	case "transcript", "transcripts":
		return KindTranscript, true
	case "other":
		return KindOther, true
	}
	return "", false
}

// MediaRecord is the metadata document for one stored media artifact.
//
// The common fields are shared by every kind. The cross-reference and
// kind-specific fields are optional and omitted from the stored document
// when empty.
type MediaRecord struct {
	ID          string    `json:"id" firestore:"id"`
	Kind        MediaKind `json:"type" firestore:"type"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	Year        string    `json:"year" firestore:"year"`
	Category    string    `json:"category" firestore:"category"`
	Date        string    `json:"date" firestore:"date"`
	URL         string    `json:"url" firestore:"url"`
	SessionID   string    `json:"session_id,omitempty" firestore:"session_id,omitempty"`
	Duration    string    `json:"duration,omitempty" firestore:"duration,omitempty"`

	// Session metadata captured at ingestion.
	SessionName      string `json:"session_name,omitempty" firestore:"session_name,omitempty"`
	SessionDay       int    `json:"session_day,omitempty" firestore:"session_day,omitempty"`
	Chamber          string `json:"chamber,omitempty" firestore:"chamber,omitempty"`
	GCSPath          string `json:"gcs_path,omitempty" firestore:"gcs_path,omitempty"`
	FileName         string `json:"file_name,omitempty" firestore:"file_name,omitempty"`
	OriginalFileName string `json:"original_file_name,omitempty" firestore:"original_file_name,omitempty"`

	// Cross references. A record never points at its own kind.
	RelatedVideoID       string `json:"related_video_id,omitempty" firestore:"related_video_id,omitempty"`
	RelatedVideoURL      string `json:"related_video_url,omitempty" firestore:"related_video_url,omitempty"`
	RelatedAudioID       string `json:"related_audio_id,omitempty" firestore:"related_audio_id,omitempty"`
	RelatedAudioURL      string `json:"related_audio_url,omitempty" firestore:"related_audio_url,omitempty"`
	RelatedTranscriptID  string `json:"related_transcript_id,omitempty" firestore:"related_transcript_id,omitempty"`
	RelatedTranscriptURL string `json:"related_transcript_url,omitempty" firestore:"related_transcript_url,omitempty"`

	// Audio
	SampleRate int `json:"sample_rate,omitempty" firestore:"sample_rate,omitempty"`
	Channels   int `json:"channels,omitempty" firestore:"channels,omitempty"`

	// Transcript
	Content   string `json:"content,omitempty" firestore:"content,omitempty"`
	WordCount int    `json:"word_count,omitempty" firestore:"word_count,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" firestore:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" firestore:"updated_at,omitempty"`
}

// NewMediaRecord creates a record with a deterministic id derived from the
// storage path, so re-ingesting the same object overwrites the same document.
func NewMediaRecord(kind MediaKind, storagePath string) *MediaRecord {
	now := time.Now().UTC()
	return &MediaRecord{
		ID:        RecordID(kind, storagePath),
		Kind:      kind,
		GCSPath:   storagePath,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordID derives a stable id for a stored artifact.
func RecordID(kind MediaKind, storagePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(string(kind)+":"+storagePath)).String()
}

// RelatedID returns the id this record holds for its sibling of the given kind.
func (m *MediaRecord) RelatedID(kind MediaKind) string {
	switch kind {
	case KindVideo:
		return m.RelatedVideoID
	case KindAudio:
		return m.RelatedAudioID
	case KindTranscript:
		return m.RelatedTranscriptID
	}
	return ""
}

// RelatedURL returns the URL this record holds for its sibling of the given kind.
func (m *MediaRecord) RelatedURL(kind MediaKind) string {
	switch kind {
	case KindVideo:
		return m.RelatedVideoURL
	case KindAudio:
		return m.RelatedAudioURL
	case KindTranscript:
		return m.RelatedTranscriptURL
	}
	return ""
}

// SetRelated stores the cross reference to a sibling of the given kind.
// Setting a reference to the record's own kind is ignored.
func (m *MediaRecord) SetRelated(kind MediaKind, id string, url string) {
	if kind == m.Kind {
		return
	}
	switch kind {
	case KindVideo:
		m.RelatedVideoID, m.RelatedVideoURL = id, url
	case KindAudio:
		m.RelatedAudioID, m.RelatedAudioURL = id, url
	case KindTranscript:
		m.RelatedTranscriptID, m.RelatedTranscriptURL = id, url
	}
}

// HasRelated reports whether any cross reference to the given kind is set.
func (m *MediaRecord) HasRelated(kind MediaKind) bool {
	return m.RelatedID(kind) != "" || m.RelatedURL(kind) != ""
}

// Clone returns a shallow copy, which is a full copy since MediaRecord holds
// no reference types.
func (m *MediaRecord) Clone() *MediaRecord {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

// Relation is a single cross-reference write: record `SourceID` of kind
// `SourceKind` should point at `TargetID`/`TargetURL` of kind `TargetKind`.
type Relation struct {
	SourceKind MediaKind
	SourceID   string
	TargetKind MediaKind
	TargetID   string
	TargetURL  string
}

// FieldNames returns the document field names that hold the reference.
func (r Relation) FieldNames() (idField string, urlField string) {
	return "related_" + string(r.TargetKind) + "_id", "related_" + string(r.TargetKind) + "_url"
}
