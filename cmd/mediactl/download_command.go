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
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var rawURL string
	var chamber string
	var date string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Copy a session recording from the legislature site into the video bucket",
		Example: "  mediactl download --chamber house --date 2025-01-24\n" +
			"  mediactl download --url https://insession.idaho.gov/IIS/2025/House/Chambers/HouseChambers01-24-2025.mp4",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rawURL == "" && (chamber == "" || date == "") {
				return fmt.Errorf("either --url or both --chamber and --date are required")
			}
			if rawURL != "" && (chamber != "" || date != "") {
				return fmt.Errorf("--url cannot be combined with --chamber or --date")
			}
			var day time.Time
			if rawURL == "" {
				parsed, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
				day = parsed
			}

			b, err := ctx.ensureBackends(cmd.Context())
			if err != nil {
				return err
			}
			if rawURL == "" {
				rawURL, err = b.download.URLFor(chamber, day)
				if err != nil {
					return err
				}
			}

			chCtx := cor.NewContextWith(cmd.Context(), rawURL)
			defer chCtx.Close()
			b.download.Execute(chCtx)
			if err := cor.Err(chCtx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if obj, ok := chCtx.Get(cor.CtxIn).(*cloud.GCSObject); ok {
				fmt.Fprintf(out, "Stored %s as %s (%s)\n", rawURL, obj.URI(), obj.MIMEType)
				return nil
			}
			fmt.Fprintf(out, "Downloaded %s\n", rawURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "Recording URL")
	cmd.Flags().StringVar(&chamber, "chamber", "", "Category key from the config, e.g. house or senate")
	cmd.Flags().StringVar(&date, "date", "", "Session date (YYYY-MM-DD)")
	return cmd
}
