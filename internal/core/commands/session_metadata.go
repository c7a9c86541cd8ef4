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

package commands

import (
	"log/slog"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// ExtractSessionMetadata derives the session (chamber, date, day) from the
// object name and stores it under SessionMetadataParam. The object is passed
// through unchanged.
type ExtractSessionMetadata struct {
	cor.BaseCommand
}

func NewExtractSessionMetadata(name string) *ExtractSessionMetadata {
	return &ExtractSessionMetadata{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ExtractSessionMetadata) Execute(context cor.Context) {
	obj := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	meta := model.ExtractSessionMetadata(obj.Name)
	slog.InfoContext(context.GetContext(), "extracted session metadata",
		"object", obj.Name,
		"session_id", meta.SessionID(),
		"chamber", meta.Chamber,
		"date", meta.Date,
		"day", meta.SessionDay)

	c.Succeed(context)
	context.Add(SessionMetadataParam, meta)
	context.Add(c.GetOutputParam(), obj)
}
