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
// of the metadata store. This file defines MediaService, the read side used
// by the REST API and the CLI.
//
// Query-time linking:
// Records ingested before the link job ran may lack cross references. When
// a caller asks for related media, missing references are resolved against
// cached candidate pools with the relationship resolver. Those matches are
// returned to the caller but never written back; persisting them is the
// link job's responsibility.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/resolver"
)

// MediaService answers catalog queries.
type MediaService struct {
	Store    MediaStore         // Metadata store.
	Resolver *resolver.Resolver // Query-time relationship resolver.
	Pools    *CandidatePools    // Cached candidate pools for the resolver.
	Signer   URLSigner          // Signs stream URLs; may be nil.
}

// NewMediaService wires a resolver whose direct-reference strategy fetches
// through the store.
func NewMediaService(store MediaStore, opts resolver.Options, poolTTL time.Duration, signer URLSigner) *MediaService {
	return &MediaService{
		Store:    store,
		Resolver: resolver.New(resolver.WithFetcher(NewStoreFetcher(store)), resolver.WithOptions(opts)),
		Pools:    NewCandidatePools(store, poolTTL),
		Signer:   signer,
	}
}

// List returns the records of kind matching filter. With withRelated set,
// missing cross references are filled in transiently.
func (s *MediaService) List(ctx context.Context, kind model.MediaKind, filter model.ListFilter, withRelated bool) ([]*model.MediaRecord, error) {
	records, err := s.Store.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	if !withRelated {
		return records, nil
	}
	for i, rec := range records {
		records[i] = s.fillRelated(ctx, rec)
	}
	return records, nil
}

// Get returns one record or an error wrapping ErrNotFound.
func (s *MediaService) Get(ctx context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error) {
	return s.Store.Get(ctx, kind, id)
}

// fillRelated returns rec, or a copy of it with the missing cross
// references resolved.
func (s *MediaService) fillRelated(ctx context.Context, rec *model.MediaRecord) *model.MediaRecord {
	out := rec
	for _, target := range model.Kinds {
		if target == rec.Kind || rec.HasRelated(target) {
			continue
		}
		pool, err := s.Pools.Pool(ctx, target)
		if err != nil {
			slog.WarnContext(ctx, "candidate pool unavailable", "kind", target, "error", err)
			continue
		}
		res := s.Resolver.Resolve(ctx, rec, target, pool)
		if !res.Found() {
			continue
		}
		if out == rec {
			out = rec.Clone()
		}
		out.SetRelated(target, res.Record.ID, res.Record.URL)
	}
	return out
}

// Related resolves the sibling records of one record, naming the strategy
// that found each one.
func (s *MediaService) Related(ctx context.Context, kind model.MediaKind, id string) (*model.RelatedMedia, error) {
	source, err := s.Store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	out := &model.RelatedMedia{Source: source}
	for _, target := range model.Kinds {
		if target == kind {
			continue
		}
		pool, err := s.Pools.Pool(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s candidates: %w", target, err)
		}
		res := s.Resolver.Resolve(ctx, source, target, pool)
		if !res.Found() {
			continue
		}
		switch target {
		case model.KindVideo:
			out.Video, out.VideoStrategy = res.Record, res.Strategy
		case model.KindAudio:
			out.Audio, out.AudioStrategy = res.Record, res.Strategy
		case model.KindTranscript:
			out.Transcript, out.TranscriptStrategy = res.Record, res.Strategy
		}
	}
	return out, nil
}

// StreamURL signs the URL of a video for playback.
func (s *MediaService) StreamURL(ctx context.Context, id string, expires time.Duration) (string, error) {
	if s.Signer == nil {
		return "", fmt.Errorf("url signing is not configured")
	}
	rec, err := s.Store.Get(ctx, model.KindVideo, id)
	if err != nil {
		return "", err
	}
	if rec.URL == "" {
		return "", fmt.Errorf("video %s has no stored object", id)
	}
	return s.Signer.SignedURL(ctx, rec.URL, expires)
}

// Stats counts the records of every linked kind.
func (s *MediaService) Stats(ctx context.Context) (*model.MediaStats, error) {
	out := &model.MediaStats{}
	for _, kind := range model.Kinds {
		n, err := s.Store.Count(ctx, kind)
		if err != nil {
			return nil, err
		}
		switch kind {
		case model.KindVideo:
			out.Videos = n
		case model.KindAudio:
			out.Audio = n
		case model.KindTranscript:
			out.Transcripts = n
		}
		out.Total += n
	}
	return out, nil
}

// Filters returns the sorted distinct years and categories of the videos.
func (s *MediaService) Filters(ctx context.Context) (*model.FilterOptions, error) {
	videos, err := s.Store.List(ctx, model.KindVideo, model.ListFilter{})
	if err != nil {
		return nil, err
	}
	years := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, v := range videos {
		if v.Year != "" {
			years[v.Year] = struct{}{}
		}
		if v.Category != "" {
			categories[v.Category] = struct{}{}
		}
	}
	return &model.FilterOptions{Years: sortedKeys(years), Categories: sortedKeys(categories)}, nil
}

func sortedKeys(in map[string]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
