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

package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/commands"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
)

// MediaDownloadWorkflow copies one recording URL (CtxIn) into the video
// bucket. Ingestion then starts from the bucket notification.
type MediaDownloadWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	chain  cor.Chain
}

func (m *MediaDownloadWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *MediaDownloadWorkflow) IsExecutable(context cor.Context) bool {
	return m.chain.IsExecutable(context)
}

// URLFor renders the recording URL of a category ("house", "senate") for a
// date.
func (m *MediaDownloadWorkflow) URLFor(category string, date time.Time) (string, error) {
	cat, ok := m.config.Categories[strings.ToLower(category)]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return commands.RenderDownloadURL(cat, m.config.Downloader.BaseURL, date)
}

func NewMediaDownloadWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *MediaDownloadWorkflow {
	out := &MediaDownloadWorkflow{
		BaseCommand: *cor.NewBaseCommand("media-download-workflow"),
		config:      config,
	}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewMediaDownload("media-download", serviceClients.StorageClient, config.Storage.VideoBucket, config.Downloader))
	out.chain = chain
	return out
}
