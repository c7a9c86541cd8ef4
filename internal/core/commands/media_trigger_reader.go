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
// workflows. This file defines the first step of ingestion: it turns the raw
// GCS Pub/Sub notification into a GCSObject.
//
// Only videos are ingested. Any other object (audio and transcripts written
// by the pipeline itself, thumbnails, stray files) produces no output, so
// every later step is skipped and the message is acknowledged.
package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
)

// MediaTriggerToGCSObject parses a notification payload.
type MediaTriggerToGCSObject struct {
	cor.BaseCommand
}

func NewMediaTriggerToGCSObject(name string) *MediaTriggerToGCSObject {
	return &MediaTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// ContentTypeFor returns the declared content type, or the type implied by
// the object extension when the uploader did not set a specific one.
func ContentTypeFor(declared string, name string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if t := filetype.GetType(ext); t != filetype.Unknown {
		return t.MIME.Value
	}
	return declared
}

func (c *MediaTriggerToGCSObject) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("expected a notification payload, got %T", context.Get(c.GetInputParam())))
		return
	}

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.Fail(context, fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}
	if notification.Bucket == "" || notification.Name == "" {
		c.Fail(context, fmt.Errorf("notification has no bucket or object name"))
		return
	}

	msg := &cloud.GCSObject{
		Bucket:   notification.Bucket,
		Name:     notification.Name,
		MIMEType: ContentTypeFor(notification.ContentType, notification.Name),
	}
	c.Succeed(context)

	if !msg.IsVideo() {
		slog.InfoContext(context.GetContext(), "ignoring non-video object", "object", msg.URI(), "content_type", msg.MIMEType)
		return
	}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(c.GetOutputParam(), msg)
}
