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

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/commands"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	test "github.com/jaycherian/legislative-media-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaTriggerToGCSObject(t *testing.T) {
	cmd := commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object")
	chCtx := cor.NewContextWith(context.Background(), test.GetTestVideoMessageText())

	require.True(t, cmd.IsExecutable(chCtx))
	cmd.Execute(chCtx)
	require.False(t, chCtx.HasErrors())

	obj, ok := chCtx.Get(cor.CtxOut).(*cloud.GCSObject)
	require.True(t, ok)
	assert.Equal(t, "legislative-media-video", obj.Bucket)
	assert.Equal(t, "video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4", obj.Name)
	assert.Equal(t, "video/mp4", obj.MIMEType)
	assert.Same(t, obj, chCtx.Get(cloud.GetGCSObjectName()))
}

func TestMediaTriggerIgnoresNonVideo(t *testing.T) {
	cmd := commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object")
	chCtx := cor.NewContextWith(context.Background(), test.GetTestTextMessageText())

	cmd.Execute(chCtx)
	assert.False(t, chCtx.HasErrors())
	assert.Nil(t, chCtx.Get(cor.CtxOut))
	assert.Nil(t, chCtx.Get(cloud.GetGCSObjectName()))
}

func TestMediaTriggerRejectsGarbage(t *testing.T) {
	cmd := commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object")
	chCtx := cor.NewContextWith(context.Background(), "{not json")

	cmd.Execute(chCtx)
	assert.True(t, chCtx.HasErrors())
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", commands.ContentTypeFor("", "video/2025/a.mp4"))
	assert.Equal(t, "video/mp4", commands.ContentTypeFor("application/octet-stream", "a.MP4"))
	assert.Equal(t, "video/quicktime", commands.ContentTypeFor("video/quicktime", "a.mp4"))
	assert.Equal(t, "", commands.ContentTypeFor("", "notes"))
}

func TestExtractSessionMetadataCommand(t *testing.T) {
	cmd := commands.NewExtractSessionMetadata("extract-session-metadata")
	obj := &cloud.GCSObject{Bucket: "b", Name: "video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4", MIMEType: "video/mp4"}
	chCtx := cor.NewContextWith(context.Background(), obj)

	cmd.Execute(chCtx)
	require.False(t, chCtx.HasErrors())
	meta, ok := chCtx.Get(commands.SessionMetadataParam).(*model.SessionMetadata)
	require.True(t, ok)
	assert.Equal(t, model.GetExampleSessionMetadata(), meta)
	assert.Same(t, obj, chCtx.Get(cor.CtxOut))
}

func TestAudioExtractionArgs(t *testing.T) {
	args := commands.AudioExtractionArgs("/tmp/in.mp4", "/tmp/out.mp3", model.DefaultAudioFormat())
	assert.Equal(t, []string{
		"-hide_banner", "-y", "-i", "/tmp/in.mp4", "-vn",
		"-acodec", "libmp3lame", "-ar", "44100", "-ac", "1", "/tmp/out.mp3",
	}, args)
}

// mp4Header is the start of an ISO base media file with an "isom" brand.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm',
	0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2',
}

func TestCheckVideoFile(t *testing.T) {
	dir := t.TempDir()

	video := filepath.Join(dir, "session.mp4")
	require.NoError(t, os.WriteFile(video, append(mp4Header, make([]byte, 512)...), 0o600))
	assert.NoError(t, commands.CheckVideoFile(video))

	text := filepath.Join(dir, "notes.mp4")
	require.NoError(t, os.WriteFile(text, []byte("definitely not a video"), 0o600))
	assert.Error(t, commands.CheckVideoFile(text))

	assert.Error(t, commands.CheckVideoFile(filepath.Join(dir, "missing.mp4")))
}

func TestRenderDownloadURL(t *testing.T) {
	config := test.GetConfig(t)
	date := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)

	u, err := commands.RenderDownloadURL(config.Categories["house"], config.Downloader.BaseURL, date)
	require.NoError(t, err)
	assert.Equal(t, "https://insession.idaho.gov/IIS/2025/House/Chambers/HouseChambers01-24-2025.mp4", u)

	_, err = commands.RenderDownloadURL(cloud.Category{Name: "empty"}, "", date)
	assert.Error(t, err)
}

func TestDownloadObjectName(t *testing.T) {
	name, err := commands.DownloadObjectName("https://insession.idaho.gov/IIS/2025/Senate/Chambers/SenateChambers02-03-2025.mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/2025/Senate Chambers/SenateChambers02-03-2025.mp4", name)

	_, err = commands.DownloadObjectName("https://insession.idaho.gov/")
	assert.Error(t, err)
}

func TestRenderPrompt(t *testing.T) {
	config := test.GetConfig(t)
	tmpl, err := template.New("transcript").Parse(config.PromptTemplates.TranscriptPrompt)
	require.NoError(t, err)

	prompt, err := commands.RenderPrompt(tmpl, model.GetExampleSessionMetadata())
	require.NoError(t, err)
	assert.Contains(t, prompt, "House Chambers session, session day 19, recorded 01-24-2025.")
	assert.Contains(t, prompt, "The House will come to order.")

	undated := model.GetExampleSessionMetadata()
	undated.Date = ""
	prompt, err = commands.RenderPrompt(tmpl, undated)
	require.NoError(t, err)
	assert.Contains(t, prompt, "session day 19.")
	assert.NotContains(t, prompt, "recorded")
}

func TestBuildSessionRecords(t *testing.T) {
	meta := model.GetExampleSessionMetadata()
	prefix := "https://storage.googleapis.com"
	video := &cloud.GCSObject{Bucket: "legislative-media-video", Name: "video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4"}
	audio := &cloud.GCSObject{Bucket: "legislative-media-audio", Name: meta.StoragePath(model.KindAudio, "mp3")}
	transcript := &cloud.GCSObject{Bucket: "legislative-media-transcripts", Name: meta.StoragePath(model.KindTranscript, "txt")}

	records := commands.BuildSessionRecords(meta, prefix, video, audio, transcript, "The House will come to order.", model.DefaultAudioFormat())
	require.Len(t, records, 3)

	for _, rec := range records {
		assert.Equal(t, meta.SessionID(), rec.SessionID)
		assert.Equal(t, "House Chambers - Session Day 19", rec.Title)
		assert.Equal(t, "2025", rec.Year)
		assert.Equal(t, model.RecordID(rec.Kind, rec.GCSPath), rec.ID)
	}
	assert.Equal(t, model.KindVideo, records[0].Kind)
	assert.Equal(t, "https://storage.googleapis.com/legislative-media-video/video/2025/House%20Chambers/19/HouseChambers01-24-2025_Day19.mp4", records[0].URL)
	assert.Equal(t, "HouseChambers01-24-2025_Day19.mp4", records[0].FileName)
	assert.Equal(t, 44100, records[1].SampleRate)
	assert.Equal(t, "2025-01-24_HouseChambers_Day19.mp3", records[1].FileName)
	assert.Equal(t, 6, records[2].WordCount)
}

type memStore struct {
	saved []*model.MediaRecord
	err   error
}

func (s *memStore) Get(context.Context, model.MediaKind, string) (*model.MediaRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *memStore) List(context.Context, model.MediaKind, model.ListFilter) ([]*model.MediaRecord, error) {
	return nil, nil
}

func (s *memStore) Save(_ context.Context, rec *model.MediaRecord) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec)
	return nil
}

func (s *memStore) UpdateRelations(context.Context, model.Relation) error { return nil }

func (s *memStore) Count(context.Context, model.MediaKind) (int64, error) { return 0, nil }

func persistContext() cor.Context {
	meta := model.GetExampleSessionMetadata()
	chCtx := cor.NewContextWith(context.Background(), nil)
	chCtx.Add(cloud.GetGCSObjectName(), &cloud.GCSObject{Bucket: "v", Name: "video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4"})
	chCtx.Add(commands.SessionMetadataParam, meta)
	chCtx.Add(commands.UploadedObjectParam(model.KindAudio), &cloud.GCSObject{Bucket: "a", Name: meta.StoragePath(model.KindAudio, "mp3")})
	chCtx.Add(commands.UploadedObjectParam(model.KindTranscript), &cloud.GCSObject{Bucket: "t", Name: meta.StoragePath(model.KindTranscript, "txt")})
	chCtx.Add(commands.TranscriptTextParam, "order")
	return chCtx
}

func TestMediaPersistRecords(t *testing.T) {
	store := &memStore{}
	cmd := commands.NewMediaPersistRecords("persist-session-records", store, "https://storage.googleapis.com", nil)

	assert.False(t, cmd.IsExecutable(cor.NewContextWith(context.Background(), nil)))

	chCtx := persistContext()
	require.True(t, cmd.IsExecutable(chCtx))
	cmd.Execute(chCtx)
	require.False(t, chCtx.HasErrors())
	assert.Len(t, store.saved, 3)
	assert.Equal(t, store.saved, chCtx.Get(cor.CtxOut))

	failing := commands.NewMediaPersistRecords("persist-session-records", &memStore{err: errors.New("unavailable")}, "", nil)
	chCtx = persistContext()
	failing.Execute(chCtx)
	assert.True(t, chCtx.HasErrors())
}

type fakeLinker struct {
	got  []*model.MediaRecord
	rows []*model.LinkReport
	err  error
}

func (f *fakeLinker) LinkRecords(_ context.Context, records []*model.MediaRecord) ([]*model.LinkReport, error) {
	f.got = records
	return f.rows, f.err
}

type fakeReporter struct {
	rows []*model.LinkReport
}

func (f *fakeReporter) Report(_ context.Context, rows []*model.LinkReport) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func TestLinkAndReportCommands(t *testing.T) {
	records := []*model.MediaRecord{{ID: "v1", Kind: model.KindVideo}}
	rows := []*model.LinkReport{{RunID: "r1", SourceID: "v1", TargetID: "a1", Strategy: "session_id"}}
	linker := &fakeLinker{rows: rows}
	reporter := &fakeReporter{}

	chain := cor.NewBaseChain("link-chain")
	chain.AddCommand(commands.NewMediaLinkRecords("link-session-records", linker))
	chain.AddCommand(commands.NewLinkReportToBigQuery("write-link-report", reporter))

	chCtx := cor.NewContextWith(context.Background(), records)
	chain.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.Equal(t, records, linker.got)
	assert.Equal(t, rows, reporter.rows)
}

func TestLinkCommandFailure(t *testing.T) {
	linker := &fakeLinker{err: errors.New("store unavailable")}
	cmd := commands.NewMediaLinkRecords("link-session-records", linker)
	chCtx := cor.NewContextWith(context.Background(), []*model.MediaRecord{})

	cmd.Execute(chCtx)
	require.True(t, chCtx.HasErrors())
	assert.True(t, strings.Contains(cor.Err(chCtx).Error(), "store unavailable"))
}
