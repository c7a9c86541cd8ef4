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

// Package services implements the business operations of the portal on top
// of the metadata store. This file defines the BigQuery audit table of link
// runs: every cross reference the link job resolves is appended as a row,
// which lets operators see how often each resolver strategy fires.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// BigQueryLinkReporter writes and reads the link report table.
type BigQueryLinkReporter struct {
	Client      *bigquery.Client // Client for Google Cloud BigQuery.
	DatasetName string           // e.g. "legislative_media"
	TableName   string           // e.g. "link_reports"
}

// GetFQN returns "project.dataset.table" for use in standard SQL.
func (r *BigQueryLinkReporter) GetFQN() string {
	fqn := r.Client.Dataset(r.DatasetName).Table(r.TableName).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", 1)
}

// EnsureTable creates the table from the LinkReport schema when it does not
// exist yet.
func (r *BigQueryLinkReporter) EnsureTable(ctx context.Context) error {
	table := r.Client.Dataset(r.DatasetName).Table(r.TableName)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("failed to read table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(model.LinkReport{})
	if err != nil {
		return err
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.GetFQN(), err)
	}
	return nil
}

// Report streams rows into the table.
func (r *BigQueryLinkReporter) Report(ctx context.Context, rows []*model.LinkReport) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := r.Client.Dataset(r.DatasetName).Table(r.TableName).Inserter()
	return inserter.Put(ctx, rows)
}

// StrategyCounts breaks the persisted links down by strategy. A non-empty
// runID restricts the count to that run.
func (r *BigQueryLinkReporter) StrategyCounts(ctx context.Context, runID string) (out []*model.StrategyCount, err error) {
	out = make([]*model.StrategyCount, 0)

	var q *bigquery.Query
	if runID == "" {
		q = r.Client.Query(fmt.Sprintf(QryStrategyCounts, r.GetFQN()))
	} else {
		q = r.Client.Query(fmt.Sprintf(QryStrategyCountsForRun, r.GetFQN()))
		q.Parameters = []bigquery.QueryParameter{{Name: "run_id", Value: runID}}
	}

	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	for {
		row := &model.StrategyCount{}
		err := itr.Next(row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}
