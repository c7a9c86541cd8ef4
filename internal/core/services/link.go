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
// of the metadata store. This file defines LinkService, which persists the
// cross references between the video, audio and transcript of a session.
//
// Logic Flow:
//  1. The candidate pools of every kind are loaded once per run and shared
//     read-only by the workers.
//  2. Every record with a missing reference (id or url) is resolved against
//     the pool of the missing kind by a bounded pool of workers.
//  3. Matches are written with UpdateRelations. A stored id is never replaced:
//     when the match differs from it the record is left alone, and when they
//     agree only the missing url is filled. When bidirectional linking is on,
//     the back-pointer on the target is written too, unless the target
//     already points at a different record.
//  4. The pools are not refreshed while the run writes, so every pointer
//     ("<kind>/<id>/<target kind>") is claimed before it is written. The
//     first claim in a run wins, whether it is a forward or a back-pointer.
//  5. Failures of a single record are counted and logged, never fatal.
//  6. Every written pointer becomes a LinkReport row for the audit table.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/resolver"
	"golang.org/x/sync/errgroup"
)

// LinkReporter receives the audit rows of a link run.
type LinkReporter interface {
	Report(ctx context.Context, rows []*model.LinkReport) error
}

// LinkService runs relationship backfills.
type LinkService struct {
	Store         MediaStore         // Metadata store.
	Resolver      *resolver.Resolver // Strategy cascade.
	Workers       int                // Concurrent records; at least 1.
	Bidirectional bool               // Also write back-pointers.
	Reporter      LinkReporter       // Audit sink; may be nil.
}

// ResolverOptions converts the [resolver] config section.
func ResolverOptions(config cloud.Resolver) resolver.Options {
	return resolver.Options{
		FuzzyThreshold: config.FuzzyThreshold,
		MinTokenLength: config.MinTokenLength,
		Stopwords:      config.Stopwords,
	}
}

// NewLinkService builds a LinkService from the [resolver] config section.
func NewLinkService(store MediaStore, config cloud.Resolver, reporter LinkReporter) *LinkService {
	return &LinkService{
		Store:         store,
		Resolver:      resolver.New(resolver.WithFetcher(NewStoreFetcher(store)), resolver.WithOptions(ResolverOptions(config))),
		Workers:       config.LinkWorkers,
		Bidirectional: config.Bidirectional,
		Reporter:      reporter,
	}
}

// linkRun is the state shared by the workers of one run.
type linkRun struct {
	id      string
	dryRun  bool
	pools   map[model.MediaKind][]*model.MediaRecord
	stats   model.LinkStats
	mu      sync.Mutex
	reports []*model.LinkReport
	claimed sync.Map // "<kind>/<id>/<target kind>" -> struct{}
	touched sync.Map // "<kind>/<id>" -> struct{}
}

// claim reserves the pointer of kind/id towards target for this run.
func (r *linkRun) claim(kind model.MediaKind, id string, target model.MediaKind) bool {
	_, taken := r.claimed.LoadOrStore(fmt.Sprintf("%s/%s/%s", kind, id, target), struct{}{})
	return !taken
}

// touch counts a record as updated once per run.
func (r *linkRun) touch(rec *model.MediaRecord) {
	if _, seen := r.touched.LoadOrStore(fmt.Sprintf("%s/%s", rec.Kind, rec.ID), struct{}{}); !seen {
		r.stats.Updated.Add(1)
	}
}

func (r *linkRun) addReport(rep *model.LinkReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (s *LinkService) newRun(ctx context.Context, dryRun bool) (*linkRun, error) {
	run := &linkRun{
		id:     uuid.NewString(),
		dryRun: dryRun,
		pools:  make(map[model.MediaKind][]*model.MediaRecord),
	}
	for _, kind := range model.Kinds {
		pool, err := s.Store.List(ctx, kind, model.ListFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to load %s pool: %w", kind, err)
		}
		run.pools[kind] = pool
	}
	return run, nil
}

// Run links every record in the store.
func (s *LinkService) Run(ctx context.Context, dryRun bool) (*model.LinkSummary, error) {
	run, err := s.newRun(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "link run started", "run_id", run.id, "dry_run", dryRun, "workers", s.workers())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for _, kind := range model.Kinds {
		for _, rec := range run.pools[kind] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.linkRecord(gctx, run, rec)
				return nil
			})
		}
	}
	err = g.Wait()

	summary := run.stats.Summary(run.id, dryRun)
	if reportErr := s.report(ctx, run); reportErr != nil {
		err = errors.Join(err, reportErr)
	}
	slog.InfoContext(ctx, "link run finished",
		"run_id", run.id,
		"processed", summary.Processed,
		"updated", summary.Updated,
		"unmatched", summary.Unmatched,
		"errors", summary.Errors)
	return summary, err
}

// LinkRecords links the given records, typically the artifacts of one
// freshly ingested session, and returns the audit rows it produced.
func (s *LinkService) LinkRecords(ctx context.Context, records []*model.MediaRecord) ([]*model.LinkReport, error) {
	run, err := s.newRun(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		s.linkRecord(ctx, run, rec)
	}
	if n := run.stats.Errors.Load(); n > 0 {
		return run.reports, fmt.Errorf("%d cross reference writes failed", n)
	}
	return run.reports, nil
}

// Resolve runs the cascade for one record against the current store content.
func (s *LinkService) Resolve(ctx context.Context, source *model.MediaRecord, target model.MediaKind) (resolver.Resolution, error) {
	pool, err := s.Store.List(ctx, target, model.ListFilter{})
	if err != nil {
		return resolver.Resolution{}, err
	}
	return s.Resolver.Resolve(ctx, source, target, pool), nil
}

func (s *LinkService) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

func (s *LinkService) report(ctx context.Context, run *linkRun) error {
	if s.Reporter == nil || len(run.reports) == 0 {
		return nil
	}
	if err := s.Reporter.Report(ctx, run.reports); err != nil {
		return fmt.Errorf("failed to write link report: %w", err)
	}
	return nil
}

func (s *LinkService) linkRecord(ctx context.Context, run *linkRun, rec *model.MediaRecord) {
	run.stats.Processed.Add(1)
	unmatched := false

	for _, target := range model.Kinds {
		if target == rec.Kind {
			continue
		}
		storedID, storedURL := rec.RelatedID(target), rec.RelatedURL(target)
		if storedID != "" && storedURL != "" {
			continue
		}
		res := s.Resolver.Resolve(ctx, rec, target, run.pools[target])
		if !res.Found() {
			unmatched = true
			continue
		}
		match := res.Record
		if storedID != "" && match.ID != storedID {
			slog.DebugContext(ctx, "keeping stored cross reference",
				"source", rec.ID, "stored", storedID, "candidate", match.ID, "strategy", res.Strategy)
			continue
		}
		if match.ID == storedID && match.URL == storedURL {
			continue
		}
		if !run.claim(rec.Kind, rec.ID, target) {
			continue
		}

		rel := model.Relation{SourceKind: rec.Kind, SourceID: rec.ID, TargetKind: target, TargetID: match.ID, TargetURL: match.URL}
		if !s.write(ctx, run, rel, res.Strategy) {
			continue
		}
		run.touch(rec)
		if !run.dryRun {
			s.writeBackPointer(ctx, run, rec, match, res.Strategy)
		}
	}

	if unmatched {
		run.stats.Unmatched.Add(1)
	}
}

// write stores rel, or only records it on a dry run, and adds the audit row.
func (s *LinkService) write(ctx context.Context, run *linkRun, rel model.Relation, strategy string) bool {
	row := &model.LinkReport{
		RunID:      run.id,
		SourceID:   rel.SourceID,
		SourceKind: string(rel.SourceKind),
		TargetKind: string(rel.TargetKind),
		TargetID:   rel.TargetID,
		Strategy:   strategy,
		DryRun:     run.dryRun,
		LinkedAt:   time.Now().UTC(),
	}
	if !run.dryRun {
		if err := s.Store.UpdateRelations(ctx, rel); err != nil {
			run.stats.Errors.Add(1)
			slog.WarnContext(ctx, "failed to write cross reference", "source", rel.SourceID, "target", rel.TargetID, "error", err)
			return false
		}
		row.Updated = true
	}
	run.addReport(row)
	return true
}

func (s *LinkService) writeBackPointer(ctx context.Context, run *linkRun, source *model.MediaRecord, target *model.MediaRecord, strategy string) {
	if !s.Bidirectional || target.Kind == "" || target.Kind == source.Kind {
		return
	}
	existing := target.RelatedID(source.Kind)
	if existing != "" && existing != source.ID {
		return
	}
	if existing == source.ID && target.RelatedURL(source.Kind) == source.URL {
		return
	}
	if !run.claim(target.Kind, target.ID, source.Kind) {
		return
	}
	back := model.Relation{SourceKind: target.Kind, SourceID: target.ID, TargetKind: source.Kind, TargetID: source.ID, TargetURL: source.URL}
	if s.write(ctx, run, back, strategy) {
		run.touch(target)
	}
}
