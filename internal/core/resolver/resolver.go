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

// Package resolver links a video, its extracted audio and its transcript
// into one logical session.
//
// Logic Flow:
// The stored cross references are populated inconsistently, so a record is
// matched against a pool of candidates of the other medium by an ordered
// cascade of heuristics. The first heuristic that produces a match wins.
//
//  1. direct_reference: the source already stores the target's id or URL.
//  2. session_id: identical session ids.
//  3. id_suffix: "X_video" pairs with "X_audio".
//  4. filename_stem: the source file name appears in the candidate file name.
//  5. chamber_date: same chamber and same MM-DD-YYYY date.
//  6. session_day_year: same "Session Day N" token and same year.
//  7. fuzzy_title: enough significant title words in common.
//
// A Resolver holds no mutable state and is safe for concurrent use. Absence
// of a match is a normal outcome and is never reported as an error.
package resolver

import (
	"context"
	"log/slog"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// Options tunes the fuzzy title strategy.
type Options struct {
	FuzzyThreshold float64  // share of significant tokens a candidate must contain
	MinTokenLength int      // tokens shorter than this are ignored
	Stopwords      []string // ignored regardless of length
}

// DefaultOptions accepts a candidate sharing at least half of the source
// title's words of four or more letters.
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold: 0.5,
		MinTokenLength: 4,
		Stopwords:      []string{"the", "and", "with"},
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = def.FuzzyThreshold
	}
	if o.MinTokenLength <= 0 {
		o.MinTokenLength = def.MinTokenLength
	}
	if o.Stopwords == nil {
		o.Stopwords = def.Stopwords
	}
	return o
}

// Resolution is the outcome of Resolve. Record is nil when nothing matched.
type Resolution struct {
	Record   *model.MediaRecord
	Strategy string
}

// Found reports whether a match was made.
func (r Resolution) Found() bool {
	return r.Record != nil
}

// Resolver runs the strategy cascade.
type Resolver struct {
	options    Options
	fetcher    Fetcher
	strategies []Strategy
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFetcher enables loading the full record behind a direct reference.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) { r.fetcher = f }
}

// WithOptions overrides the fuzzy matching options.
func WithOptions(o Options) Option {
	return func(r *Resolver) { r.options = o.withDefaults() }
}

// WithStrategies replaces the default cascade.
func WithStrategies(strategies ...Strategy) Option {
	return func(r *Resolver) { r.strategies = strategies }
}

// DefaultStrategies is the standard cascade, most trustworthy first.
func DefaultStrategies(fetcher Fetcher, opts Options) []Strategy {
	return []Strategy{
		DirectReference(fetcher),
		{Name: StrategySessionID, Match: MatchSessionID},
		{Name: StrategyIDSuffix, Match: MatchIDSuffix},
		{Name: StrategyFilenameStem, Match: MatchFilenameStem},
		{Name: StrategyChamberDate, Match: MatchChamberDate},
		{Name: StrategySessionDayYear, Match: MatchSessionDayYear},
		FuzzyTitle(opts),
	}
}

// New builds a Resolver. Without WithStrategies it uses DefaultStrategies
// with the configured fetcher and options.
func New(opts ...Option) *Resolver {
	r := &Resolver{options: DefaultOptions()}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategies == nil {
		r.strategies = DefaultStrategies(r.fetcher, r.options)
	}
	return r
}

// Strategies returns the cascade in evaluation order.
func (r *Resolver) Strategies() []Strategy {
	return r.strategies
}

// Resolve finds the record of the target medium that belongs to the same
// session as source. A source with neither title nor URL is not matched.
func (r *Resolver) Resolve(ctx context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) Resolution {
	if source == nil || (source.Title == "" && source.URL == "") {
		return Resolution{}
	}
	for _, s := range r.strategies {
		if rec := s.Match(ctx, source, target, candidates); rec != nil {
			slog.DebugContext(ctx, "resolved related media", "source", source.ID, "target_kind", target, "target", rec.ID, "strategy", s.Name)
			return Resolution{Record: rec, Strategy: s.Name}
		}
	}
	return Resolution{}
}
