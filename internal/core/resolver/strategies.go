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

// Package resolver links records of one medium to the matching record of
// another. This file holds the individual matching strategies. Each one is an
// independent MatchFunc: given a source record, the medium being looked for
// and a read-only candidate pool, it returns the matching candidate or nil.
// None of them mutate their inputs.
package resolver

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"golang.org/x/text/cases"
)

// Strategy names, recorded alongside every resolution.
const (
	StrategyDirectReference = "direct_reference"
	StrategySessionID       = "session_id"
	StrategyIDSuffix        = "id_suffix"
	StrategyFilenameStem    = "filename_stem"
	StrategyChamberDate     = "chamber_date"
	StrategySessionDayYear  = "session_day_year"
	StrategyFuzzyTitle      = "fuzzy_title"
)

// MatchFunc is a single matching heuristic.
type MatchFunc func(ctx context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord

// Strategy is a named MatchFunc.
type Strategy struct {
	Name  string
	Match MatchFunc
}

// eligible skips nil entries and records that are explicitly of another kind.
func eligible(c *model.MediaRecord, target model.MediaKind) bool {
	return c != nil && (c.Kind == "" || c.Kind == target)
}

// DirectReference follows the cross reference the source already stores for
// the target medium. With a fetcher and an id the full record is loaded; a
// failed lookup degrades to a stub built from the stored id and URL, and a
// lookup that finds nothing lets the cascade continue. A nil fetcher always
// produces the stub.
func DirectReference(fetcher Fetcher) Strategy {
	return Strategy{Name: StrategyDirectReference, Match: func(ctx context.Context, source *model.MediaRecord, target model.MediaKind, _ []*model.MediaRecord) *model.MediaRecord {
		id, url := source.RelatedID(target), source.RelatedURL(target)
		if id == "" && url == "" {
			return nil
		}

		if id != "" && fetcher != nil {
			res := fetcher.FetchByID(ctx, target, id)
			switch res.Status {
			case FetchFound:
				if res.Record != nil {
					return res.Record
				}
			case FetchNotFound:
				slog.DebugContext(ctx, "dangling cross reference", "source", source.ID, "target_kind", target, "target_id", id)
				return nil
			case FetchFailed:
				slog.WarnContext(ctx, "cross reference lookup failed, using stub", "source", source.ID, "target_id", id, "error", res.Err)
			}
		}

		if url == "" {
			return nil
		}
		return &model.MediaRecord{ID: id, Kind: target, URL: url}
	}}
}

// MatchSessionID matches on identical, non-empty session ids.
func MatchSessionID(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
	if source.SessionID == "" {
		return nil
	}
	for _, c := range candidates {
		if eligible(c, target) && c.SessionID == source.SessionID {
			return c
		}
	}
	return nil
}

// MatchIDSuffix rewrites "X_video" to "X_audio" (or whichever suffix the
// target medium uses) and looks for that exact id.
func MatchIDSuffix(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
	want := ""
	for _, k := range model.Kinds {
		if k == target {
			continue
		}
		if stem, ok := strings.CutSuffix(source.ID, k.IDSuffix()); ok && stem != "" {
			want = stem + target.IDSuffix()
			break
		}
	}
	if want == "" {
		return nil
	}
	for _, c := range candidates {
		if eligible(c, target) && c.ID == want {
			return c
		}
	}
	return nil
}

// MatchFilenameStem matches a candidate whose last URL segment contains the
// extension-less last URL segment of the source.
func MatchFilenameStem(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
	stem := FilenameStem(source.URL)
	if stem == "" {
		return nil
	}
	for _, c := range candidates {
		if !eligible(c, target) || c.URL == "" {
			continue
		}
		if strings.Contains(LastSegment(c.URL), stem) {
			return c
		}
	}
	return nil
}

// MatchChamberDate requires both a chamber and an MM-DD-YYYY date in the
// source title or URL. A candidate matches when its title or category names
// the same chamber and its date or URL carries the same date. The ISO form of
// the date is accepted in the candidate's date field.
func MatchChamberDate(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
	chamber := ExtractChamber(source.Title)
	if chamber == "" {
		chamber = ExtractChamber(source.URL)
	}
	date := ExtractDate(source.Title)
	if date == "" {
		date = ExtractDate(source.URL)
	}
	if chamber == "" || date == "" {
		return nil
	}
	iso := isoDate(date)

	for _, c := range candidates {
		if !eligible(c, target) {
			continue
		}
		if ExtractChamber(c.Title) != chamber && ExtractChamber(c.Category) != chamber {
			continue
		}
		if strings.Contains(c.Date, date) || strings.Contains(c.URL, date) || (iso != "" && strings.Contains(c.Date, iso)) {
			return c
		}
	}
	return nil
}

// MatchSessionDayYear matches a candidate whose title carries the same
// "Session Day N" token as the source title and whose year is the same.
// Tokens are compared after extraction, so "Session Day 1" does not match
// "Session Day 19".
func MatchSessionDayYear(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
	day := ExtractSessionDay(source.Title)
	if day == "" || source.Year == "" {
		return nil
	}
	for _, c := range candidates {
		if eligible(c, target) && c.Year == source.Year && ExtractSessionDay(c.Title) == day {
			return c
		}
	}
	return nil
}

// FuzzyTitle scores candidates by how many significant source title tokens
// occur in their title and accepts the best one when it reaches the
// threshold share of the tokens, rounded up. The first candidate wins a tie.
func FuzzyTitle(opts Options) Strategy {
	return Strategy{Name: StrategyFuzzyTitle, Match: func(_ context.Context, source *model.MediaRecord, target model.MediaKind, candidates []*model.MediaRecord) *model.MediaRecord {
		tokens := SignificantTokens(source.Title, opts.MinTokenLength, opts.Stopwords)
		if len(tokens) == 0 {
			return nil
		}
		required := int(math.Ceil(float64(len(tokens)) * opts.FuzzyThreshold))
		if required < 1 {
			required = 1
		}

		fold := cases.Fold()
		folded := foldAll(fold, tokens)

		var best *model.MediaRecord
		bestScore := 0
		for _, c := range candidates {
			if !eligible(c, target) || c.Title == "" {
				continue
			}
			score := overlap(fold.String(c.Title), folded)
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		if bestScore < required {
			return nil
		}
		return best
	}}
}
