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
// workflows. This file names the context keys the steps share besides the
// CtxIn/CtxOut pipe.
package commands

import (
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

const (
	// SessionMetadataParam holds the *model.SessionMetadata of the run.
	SessionMetadataParam = "__SESSION__"
	// TranscriptTextParam holds the transcript produced by the model.
	TranscriptTextParam = "__TRANSCRIPT_TEXT__"
	// SessionRecordsParam holds the []*model.MediaRecord persisted by the run.
	SessionRecordsParam = "__SESSION_RECORDS__"
)

// UploadedObjectParam is the key under which the uploaded *cloud.GCSObject of
// a kind is kept.
func UploadedObjectParam(kind model.MediaKind) string {
	return "__OBJ__" + string(kind)
}

func sessionMetadata(context cor.Context) (*model.SessionMetadata, bool) {
	meta, ok := context.Get(SessionMetadataParam).(*model.SessionMetadata)
	return meta, ok && meta != nil
}

func uploadedObject(context cor.Context, kind model.MediaKind) (*cloud.GCSObject, bool) {
	obj, ok := context.Get(UploadedObjectParam(kind)).(*cloud.GCSObject)
	return obj, ok && obj != nil
}
