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

// Package workflow assembles commands into the chains the portal runs. This
// file defines the ingestion workflow, which is triggered by a finalize
// notification on the video bucket.
//
// Steps:
//  1. media-trigger-to-gcs-object: parse the notification; non-videos end the run.
//  2. extract-session-metadata: chamber, date and day from the object name.
//  3. gcs-to-temp-file: download the video.
//  4. extract-audio: ffmpeg to mono MP3.
//  5. upload-audio: store the audio in the audio bucket.
//  6. transcribe-audio: Gemini transcription of the stored audio.
//  7. upload-transcript: store the text in the transcript bucket.
//  8. persist-session-records: one metadata record per artifact.
//  9. link-session-records: cross references via the resolver.
//  10. write-link-report: audit rows to BigQuery.
package workflow

import (
	"fmt"
	"text/template"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/commands"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// TranscriberModelName is the agent model key used for transcription.
const TranscriberModelName = "transcriber"

// MediaIngestionWorkflow turns one uploaded session video into stored,
// linked video, audio and transcript records.
type MediaIngestionWorkflow struct {
	cor.BaseCommand
	config             *cloud.Config
	storageClient      *storage.Client
	genaiModel         *cloud.QuotaAwareGenerativeAIModel
	transcriptTemplate *template.Template
	store              services.MediaStore
	linker             commands.SessionLinker
	reporter           services.LinkReporter
	audioFormat        *model.AudioFormat
	chain              cor.Chain // The underlying chain of commands to be executed.
}

func (m *MediaIngestionWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// IsExecutable defers to the chain.
func (m *MediaIngestionWorkflow) IsExecutable(context cor.Context) bool {
	return m.chain.IsExecutable(context)
}

// Chain exposes the assembled chain.
func (m *MediaIngestionWorkflow) Chain() cor.Chain {
	return m.chain
}

func (m *MediaIngestionWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object"))
	out.AddCommand(commands.NewExtractSessionMetadata("extract-session-metadata"))
	out.AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", m.storageClient, "session-video-"))
	out.AddCommand(commands.NewFFMpegCommand("extract-audio", m.config.Downloader.FFmpegPath, m.audioFormat))
	out.AddCommand(commands.NewGCSFileUpload("upload-audio", m.storageClient, m.config.Storage.AudioBucket, model.KindAudio, m.audioFormat))
	out.AddCommand(commands.NewMediaTranscriptCreator("transcribe-audio", m.genaiModel, m.transcriptTemplate))
	out.AddCommand(commands.NewGCSTextUpload("upload-transcript", m.storageClient, m.config.Storage.TranscriptBucket, model.KindTranscript))
	out.AddCommand(commands.NewMediaPersistRecords("persist-session-records", m.store, m.config.Storage.PublicURLPrefix, m.audioFormat))
	out.AddCommand(commands.NewMediaLinkRecords("link-session-records", m.linker))
	out.AddCommand(commands.NewLinkReportToBigQuery("write-link-report", m.reporter))

	m.chain = out
}

// NewMediaIngestionWorkflow builds the chain. It fails when the transcript
// prompt does not parse or the transcriber model is not configured.
func NewMediaIngestionWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	store services.MediaStore,
	linker commands.SessionLinker,
	reporter services.LinkReporter) (*MediaIngestionWorkflow, error) {

	transcriptTemplate, err := template.New("transcript-template").Parse(config.PromptTemplates.TranscriptPrompt)
	if err != nil {
		return nil, fmt.Errorf("invalid transcript prompt: %w", err)
	}
	genaiModel, ok := serviceClients.AgentModels[TranscriberModelName]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", TranscriberModelName)
	}

	pipeline := &MediaIngestionWorkflow{
		BaseCommand:        *cor.NewBaseCommand("media-ingestion-pipeline"),
		config:             config,
		storageClient:      serviceClients.StorageClient,
		genaiModel:         genaiModel,
		transcriptTemplate: transcriptTemplate,
		store:              store,
		linker:             linker,
		reporter:           reporter,
		audioFormat:        model.DefaultAudioFormat(),
	}
	pipeline.initializeChain()
	return pipeline, nil
}
