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

package main

import (
	"fmt"
	"strconv"

	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/workflow"
	"github.com/spf13/cobra"
)

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var workers int

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Resolve and store missing cross references for every record",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				config.Resolver.LinkWorkers = workers
			}
			b, err := ctx.ensureBackends(cmd.Context())
			if err != nil {
				return err
			}

			wf := workflow.NewMediaLinkWorkflow(b.links, 0)
			chCtx := cor.NewContextWith(cmd.Context(), nil)
			chCtx.Add(workflow.DryRunParam, dryRun)
			defer chCtx.Close()
			wf.Execute(chCtx)

			if summary, ok := chCtx.Get(workflow.LinkSummaryParam).(*model.LinkSummary); ok {
				fmt.Fprintln(cmd.OutOrStdout(), renderLinkSummary(summary))
			}
			return cor.Err(chCtx)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve without writing cross references")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent link workers (default from config)")
	return cmd
}

func renderLinkSummary(s *model.LinkSummary) string {
	rows := [][]string{
		{"Run", s.RunID},
		{"Processed", strconv.FormatInt(s.Processed, 10)},
		{"Updated", strconv.FormatInt(s.Updated, 10)},
		{"Unmatched", strconv.FormatInt(s.Unmatched, 10)},
		{"Errors", strconv.FormatInt(s.Errors, 10)},
		{"Dry run", yesNo(s.DryRun)},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
