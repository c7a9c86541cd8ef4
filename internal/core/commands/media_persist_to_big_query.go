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
// workflows. This file defines the last ingestion step, which appends the
// link audit rows of the session to BigQuery.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// LinkReportToBigQuery writes []*model.LinkReport through a LinkReporter.
type LinkReportToBigQuery struct {
	cor.BaseCommand
	reporter services.LinkReporter
}

func NewLinkReportToBigQuery(name string, reporter services.LinkReporter) *LinkReportToBigQuery {
	return &LinkReportToBigQuery{BaseCommand: *cor.NewBaseCommand(name), reporter: reporter}
}

func (s *LinkReportToBigQuery) Execute(context cor.Context) {
	rows := context.Get(s.GetInputParam()).([]*model.LinkReport)
	if len(rows) == 0 {
		s.Succeed(context)
		return
	}

	if err := s.reporter.Report(context.GetContext(), rows); err != nil {
		s.Fail(context, fmt.Errorf("bigquery insert of %d link rows failed: %w", len(rows), err))
		return
	}

	s.Succeed(context)
	slog.InfoContext(context.GetContext(), "persisted link report", "rows", len(rows), "run_id", rows[0].RunID)
	context.Add(cor.CtxOut, rows)
}
