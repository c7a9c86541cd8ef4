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

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the records of every collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.ensureBackends(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := b.stats.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"videos", strconv.FormatInt(stats.Videos, 10)},
				{"audio", strconv.FormatInt(stats.Audio, 10)},
				{"transcripts", strconv.FormatInt(stats.Transcripts, 10)},
				{"total", strconv.FormatInt(stats.Total, 10)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Collection", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Break down stored cross references by the strategy that found them",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ctx.ensureBackends(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := b.reports.StrategyCounts(cmd.Context(), runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No links recorded")
				return nil
			}
			var total int64
			rows := make([][]string, 0, len(counts)+1)
			for _, c := range counts {
				total += c.Links
				rows = append(rows, []string{c.Strategy, strconv.FormatInt(c.Links, 10)})
			}
			rows = append(rows, []string{"total", strconv.FormatInt(total, 10)})
			fmt.Fprintln(out, renderTable([]string{"Strategy", "Links"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Limit the report to one link run")
	return cmd
}
