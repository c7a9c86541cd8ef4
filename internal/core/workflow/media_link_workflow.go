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
// file defines the periodic relationship backfill.
//
// Records written before a sibling existed (a transcript that failed and was
// re-run, media imported by hand) are linked by this job rather than by the
// ingestion chain. It runs on a ticker in the server and on demand through
// "mediactl link".
package workflow

import (
	goctx "context"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// LinkSummaryParam is where Execute leaves the *model.LinkSummary.
const LinkSummaryParam = "__LINK_SUMMARY__"

// DryRunParam, when set to true on the context, disables writes.
const DryRunParam = "__DRY_RUN__"

var logger = telemetry.NewBridgedLogger("link-batch")

// LinkRunner runs one backfill.
type LinkRunner interface {
	Run(ctx goctx.Context, dryRun bool) (*model.LinkSummary, error)
}

// MediaLinkWorkflow wraps a LinkRunner as a command.
type MediaLinkWorkflow struct {
	cor.BaseCommand
	runner   LinkRunner
	interval time.Duration
}

func NewMediaLinkWorkflow(runner LinkRunner, interval time.Duration) *MediaLinkWorkflow {
	return &MediaLinkWorkflow{
		BaseCommand: *cor.NewBaseCommand("media-link-workflow"),
		runner:      runner,
		interval:    interval,
	}
}

// IsExecutable needs no input.
func (m *MediaLinkWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (m *MediaLinkWorkflow) Execute(context cor.Context) {
	dryRun, _ := context.Get(DryRunParam).(bool)

	summary, err := m.runner.Run(context.GetContext(), dryRun)
	if summary != nil {
		context.Add(LinkSummaryParam, summary)
		context.Add(m.GetOutputParam(), summary)
	}
	if err != nil {
		m.Fail(context, err)
		return
	}
	m.Succeed(context)
}

// StartTimer runs the workflow every interval until ctx ends. A zero
// interval disables the timer.
func (m *MediaLinkWorkflow) StartTimer(ctx goctx.Context) {
	if m.interval <= 0 {
		logger.Info("periodic linking disabled")
		return
	}
	tracer := otel.Tracer("link-batch")
	ticker := time.NewTicker(m.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				traceCtx, span := tracer.Start(ctx, "media-link")
				chainCtx := cor.NewContextWith(traceCtx, nil)

				m.Execute(chainCtx)

				if chainCtx.HasErrors() {
					span.SetStatus(codes.Error, "failed to execute link run")
					logger.ErrorContext(traceCtx, "link run failed", "error", cor.Err(chainCtx))
				} else {
					if summary, ok := chainCtx.Get(LinkSummaryParam).(*model.LinkSummary); ok {
						logger.InfoContext(traceCtx, "link run finished", "run_id", summary.RunID, "processed", summary.Processed, "updated", summary.Updated, "unmatched", summary.Unmatched)
					}
					span.SetStatus(codes.Ok, "executed link run")
				}
				span.End()
				chainCtx.Close()
			case <-ctx.Done():
				return
			}
		}
	}()
}
