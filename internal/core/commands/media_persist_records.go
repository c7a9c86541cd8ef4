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

// Package commands holds the individual steps of the ingestion and download
// workflows. This file defines the step that writes the metadata records of
// a session: one each for the video, the audio and the transcript.
//
// Record ids are derived from the storage path of each artifact, so a
// redelivered notification rewrites the same three documents instead of
// creating duplicates. All three share the session id, which is what the
// link step matches on first.
package commands

import (
	"fmt"
	"path"
	"strings"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// MediaPersistRecords saves the session records to the metadata store.
type MediaPersistRecords struct {
	cor.BaseCommand
	store           services.MediaStore // Metadata store.
	publicURLPrefix string              // Prefix used to render record URLs.
	format          *model.AudioFormat  // Encoding of the stored audio.
}

func NewMediaPersistRecords(name string, store services.MediaStore, publicURLPrefix string, format *model.AudioFormat) *MediaPersistRecords {
	if format == nil {
		format = model.DefaultAudioFormat()
	}
	return &MediaPersistRecords{
		BaseCommand:     *cor.NewBaseCommand(name),
		store:           store,
		publicURLPrefix: publicURLPrefix,
		format:          format,
	}
}

// IsExecutable needs the source video, the session and both uploads.
func (s *MediaPersistRecords) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, hasMeta := sessionMetadata(context)
	_, hasAudio := uploadedObject(context, model.KindAudio)
	_, hasTranscript := uploadedObject(context, model.KindTranscript)
	video, hasVideo := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	return hasMeta && hasAudio && hasTranscript && hasVideo && video != nil
}

// BuildSessionRecords assembles the three records of a session.
func BuildSessionRecords(
	meta *model.SessionMetadata,
	publicURLPrefix string,
	video *cloud.GCSObject,
	audio *cloud.GCSObject,
	transcript *cloud.GCSObject,
	transcriptText string,
	format *model.AudioFormat) []*model.MediaRecord {

	newRecord := func(kind model.MediaKind, obj *cloud.GCSObject) *model.MediaRecord {
		rec := model.NewMediaRecord(kind, obj.Name)
		meta.Apply(rec)
		rec.URL = cloud.PublicURL(publicURLPrefix, obj.Bucket, obj.Name)
		rec.FileName = path.Base(obj.Name)
		return rec
	}

	videoRec := newRecord(model.KindVideo, video)

	audioRec := newRecord(model.KindAudio, audio)
	audioRec.SampleRate = format.SampleRate
	audioRec.Channels = format.Channels

	transcriptRec := newRecord(model.KindTranscript, transcript)
	transcriptRec.Content = transcriptText
	transcriptRec.WordCount = len(strings.Fields(transcriptText))

	return []*model.MediaRecord{videoRec, audioRec, transcriptRec}
}

func (s *MediaPersistRecords) Execute(context cor.Context) {
	meta, _ := sessionMetadata(context)
	video := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	audio, _ := uploadedObject(context, model.KindAudio)
	transcript, _ := uploadedObject(context, model.KindTranscript)
	text, _ := context.Get(TranscriptTextParam).(string)

	records := BuildSessionRecords(meta, s.publicURLPrefix, video, audio, transcript, text, s.format)
	for _, rec := range records {
		if err := s.store.Save(context.GetContext(), rec); err != nil {
			s.Fail(context, fmt.Errorf("failed to persist %s record for %s: %w", rec.Kind, meta.SessionID(), err))
			return
		}
	}

	s.Succeed(context)
	context.Add(SessionRecordsParam, records)
	context.Add(s.GetOutputParam(), records)
}
