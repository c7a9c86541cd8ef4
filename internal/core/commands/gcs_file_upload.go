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
// workflows. This file defines the upload steps that store the derived
// artifacts of a session.
//
// Both uploads name the object after the session, not after the source file:
// "<kind>/<year>/<chamber>/<day>/<date>_<Chamber>_Day<N>.<ext>". The
// uploaded object is kept under UploadedObjectParam(kind) for the persist
// step and is also the command output.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// artifactUpload holds what both uploads share.
type artifactUpload struct {
	cor.BaseCommand
	open      cloud.ObjectOpener // Opens writers in the destination bucket.
	bucket    string             // The name of the destination GCS bucket.
	kind      model.MediaKind    // Kind of the artifact, selects the path prefix.
	extension string             // Extension of the stored object.
	mimeType  string             // Content type of the stored object.
}

func (c *artifactUpload) IsExecutable(context cor.Context) bool {
	_, ok := sessionMetadata(context)
	return ok && c.BaseCommand.IsExecutable(context)
}

func (c *artifactUpload) write(context cor.Context, src io.Reader) (*cloud.GCSObject, error) {
	meta, _ := sessionMetadata(context)
	target := &cloud.GCSObject{
		Bucket:   c.bucket,
		Name:     meta.StoragePath(c.kind, c.extension),
		MIMEType: c.mimeType,
	}

	metadata := map[string]string{
		"session_id": meta.SessionID(),
		"chamber":    meta.Chamber,
		"date":       meta.Date,
	}

	written, err := cloud.WriteObject(context.GetContext(), c.open, target, metadata, src)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(context.GetContext(), "uploaded artifact", "object", target.URI(), "bytes", written)
	return target, nil
}

func (c *artifactUpload) done(context cor.Context, obj *cloud.GCSObject) {
	c.Succeed(context)
	context.Add(UploadedObjectParam(c.kind), obj)
	context.Add(c.GetOutputParam(), obj)
}

// GCSFileUpload uploads a local file, e.g. the extracted audio.
type GCSFileUpload struct {
	artifactUpload
}

func NewGCSFileUpload(name string, client *storage.Client, bucket string, kind model.MediaKind, format *model.AudioFormat) *GCSFileUpload {
	return &GCSFileUpload{artifactUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		open:        cloud.StorageOpener(client),
		bucket:      bucket,
		kind:        kind,
		extension:   format.Extension,
		mimeType:    format.MIMEType,
	}}
}

func (c *GCSFileUpload) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)

	file, err := os.Open(path)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to open file %s: %w", path, err))
		return
	}
	defer file.Close()

	obj, err := c.write(context, file)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.done(context, obj)
}

// GCSTextUpload uploads a string, e.g. the transcript.
type GCSTextUpload struct {
	artifactUpload
}

func NewGCSTextUpload(name string, client *storage.Client, bucket string, kind model.MediaKind) *GCSTextUpload {
	return &GCSTextUpload{artifactUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		open:        cloud.StorageOpener(client),
		bucket:      bucket,
		kind:        kind,
		extension:   "txt",
		mimeType:    "text/plain; charset=utf-8",
	}}
}

func (c *GCSTextUpload) Execute(context cor.Context) {
	text := context.Get(c.GetInputParam()).(string)

	obj, err := c.write(context, strings.NewReader(text))
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.done(context, obj)
}
