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
// workflows. This file defines the transcription step.
//
// Logic Flow:
//  1. The prompt template is rendered with the chamber, session day and date
//     of the session plus an example of the expected transcript format.
//  2. The prompt and a reference to the uploaded audio (gs:// URI) are sent
//     to Gemini. Vertex AI reads the object directly, so the audio is never
//     segmented or uploaded a second time.
//  3. The returned text is the command output and is also kept under
//     TranscriptTextParam for the persist step.
package commands

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// MediaTranscriptCreator transcribes the session audio.
type MediaTranscriptCreator struct {
	cor.BaseCommand
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel // The rate-limited generative model client.
	template                 *template.Template                 // The Go template for building the prompt.
	geminiInputTokenCounter  metric.Int64Counter                // OTel counter for input tokens.
	geminiOutputTokenCounter metric.Int64Counter                // OTel counter for output tokens.
	geminiRetryCounter       metric.Int64Counter                // OTel counter for retries.
}

func NewMediaTranscriptCreator(
	name string,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *MediaTranscriptCreator {

	out := &MediaTranscriptCreator{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          template}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

// IsExecutable also requires the session metadata.
func (t *MediaTranscriptCreator) IsExecutable(context cor.Context) bool {
	_, ok := sessionMetadata(context)
	return ok && t.BaseCommand.IsExecutable(context)
}

// GenerateParams returns the template parameters for one session.
func GenerateParams(meta *model.SessionMetadata) map[string]interface{} {
	return map[string]interface{}{
		"CHAMBER":            meta.Chamber,
		"SESSION_DAY":        meta.SessionDay,
		"DATE":               meta.DisplayDate(),
		"YEAR":               meta.Year,
		"EXAMPLE_TRANSCRIPT": model.GetExampleTranscript(),
	}
}

// RenderPrompt executes the template for one session.
func RenderPrompt(tmpl *template.Template, meta *model.SessionMetadata) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, GenerateParams(meta)); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buffer.String(), nil
}

func (t *MediaTranscriptCreator) Execute(context cor.Context) {
	audio := context.Get(t.GetInputParam()).(*cloud.GCSObject)
	meta, _ := sessionMetadata(context)

	prompt, err := RenderPrompt(t.template, meta)
	if err != nil {
		t.Fail(context, err)
		return
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: prompt},
				{FileData: cloud.NewFileData(audio.URI(), audio.MIMEType)},
			},
		},
	}

	out, err := cloud.GenerateMultiModalResponse(context.GetContext(), t.geminiInputTokenCounter, t.geminiOutputTokenCounter, t.geminiRetryCounter, t.generativeAIModel, contents)
	if err != nil {
		t.Fail(context, fmt.Errorf("gemini request failed: %w", err))
		return
	}
	if strings.TrimSpace(out) == "" {
		t.Fail(context, fmt.Errorf("gemini returned an empty transcript for %s", audio.URI()))
		return
	}

	t.Succeed(context)
	context.Add(TranscriptTextParam, out)
	context.Add(t.GetOutputParam(), out)
}
