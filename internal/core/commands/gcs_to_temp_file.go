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
// workflows. This file downloads a stored object to a local temporary file
// so ffmpeg can read it.
//
// The file keeps the object's extension, which ffmpeg uses to pick a demuxer,
// and is registered on the context so it is removed when the run ends.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
)

// GCSToTempFile copies an object to the local file system.
type GCSToTempFile struct {
	cor.BaseCommand
	client         *storage.Client // The GCS client for interacting with the storage service.
	tempFilePrefix string          // Prefix of the temporary file name, e.g. "session-video-".
}

func NewGCSToTempFile(name string, client *storage.Client, tempFilePrefix string) *GCSToTempFile {
	return &GCSToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		client:         client,
		tempFilePrefix: tempFilePrefix,
	}
}

func (c *GCSToTempFile) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	reader, err := c.client.Bucket(msg.Bucket).Object(msg.Name).NewReader(context.GetContext())
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to create GCS reader for %s: %w", msg.URI(), err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.WarnContext(context.GetContext(), "failed to close GCS reader", "object", msg.URI(), "error", err)
		}
	}()

	tempFile, err := os.CreateTemp("", c.tempFilePrefix+"*"+path.Ext(msg.Name))
	if err != nil {
		c.Fail(context, fmt.Errorf("could not create temp file: %w", err))
		return
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	closeErr := tempFile.Close()
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to copy %s to local file after %d bytes: %w", msg.URI(), written, err))
		return
	}
	if closeErr != nil {
		c.Fail(context, fmt.Errorf("failed to close %s: %w", tempFile.Name(), closeErr))
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "downloaded object", "object", msg.URI(), "file", tempFile.Name(), "bytes", written)
	context.Add(c.GetOutputParam(), tempFile.Name())
}
