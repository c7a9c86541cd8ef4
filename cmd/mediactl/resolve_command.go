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

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/spf13/cobra"
)

// newResolveCommand explains how one record resolves against the store.
// Nothing is written.
func newResolveCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var id string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the related records of one record and the strategy that found each",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseMediaKind(kindFlag)
			if !ok || kind == model.KindOther {
				return fmt.Errorf("unknown kind %q; use video, audio or transcript", kindFlag)
			}
			if id == "" {
				return fmt.Errorf("--id is required")
			}
			b, err := ctx.ensureBackends(cmd.Context())
			if err != nil {
				return err
			}

			source, err := b.records.Get(cmd.Context(), kind, id)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(model.Kinds)-1)
			for _, target := range model.Kinds {
				if target == kind {
					continue
				}
				res, err := b.links.Resolve(cmd.Context(), source, target)
				if err != nil {
					return fmt.Errorf("resolve %s: %w", target, err)
				}
				if !res.Found() {
					rows = append(rows, []string{string(target), "-", "no match"})
					continue
				}
				rows = append(rows, []string{string(target), res.Record.ID, res.Strategy})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%s)\n", kind, source.ID, source.SessionName)
			fmt.Fprintln(out, renderTable([]string{"Target", "ID", "Strategy"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", string(model.KindVideo), "Kind of the source record")
	cmd.Flags().StringVar(&id, "id", "", "ID of the source record")
	return cmd
}
