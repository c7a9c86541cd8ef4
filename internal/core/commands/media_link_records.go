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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// SessionLinker writes the cross references of freshly stored records.
type SessionLinker interface {
	LinkRecords(ctx context.Context, records []*model.MediaRecord) ([]*model.LinkReport, error)
}

// MediaLinkRecords runs the relationship resolver over the records of the
// session and outputs the resulting audit rows.
type MediaLinkRecords struct {
	cor.BaseCommand
	linker SessionLinker
}

func NewMediaLinkRecords(name string, linker SessionLinker) *MediaLinkRecords {
	return &MediaLinkRecords{BaseCommand: *cor.NewBaseCommand(name), linker: linker}
}

func (c *MediaLinkRecords) Execute(chCtx cor.Context) {
	records := chCtx.Get(c.GetInputParam()).([]*model.MediaRecord)

	reports, err := c.linker.LinkRecords(chCtx.GetContext(), records)
	if err != nil {
		c.Fail(chCtx, fmt.Errorf("failed to link session records: %w", err))
		return
	}

	c.Succeed(chCtx)
	slog.InfoContext(chCtx.GetContext(), "linked session records", "records", len(records), "links", len(reports))
	chCtx.Add(c.GetOutputParam(), reports)
}
