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

// Package resolver_test exercises the relationship cascade end to end and
// each strategy on its own.
package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bucketURL = "https://storage.googleapis.com/idaho-legislature-media"

func video(id, title, url string) *model.MediaRecord {
	return &model.MediaRecord{ID: id, Kind: model.KindVideo, Title: title, URL: url}
}

func audio(id, title, url string) *model.MediaRecord {
	return &model.MediaRecord{ID: id, Kind: model.KindAudio, Title: title, URL: url}
}

// failingFetcher counts calls and always reports a transport failure.
type failingFetcher struct {
	calls int
}

func (f *failingFetcher) FetchByID(_ context.Context, _ model.MediaKind, _ string) resolver.FetchResult {
	f.calls++
	return resolver.Failed(errors.New("connection reset"))
}

func TestSessionIDWinsOverDissimilarTitles(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "Morning floor proceedings", bucketURL+"/video/a.mp4")
	source.SessionID = "2025_House_Chambers_Day19_ab12cd34"

	decoy := audio("a0", "Morning floor proceedings", bucketURL+"/audio/zzz.mp3")
	match := audio("a1", "Completely unrelated", bucketURL+"/audio/q.mp3")
	match.SessionID = source.SessionID

	res := resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{decoy, match})
	require.True(t, res.Found())
	assert.Equal(t, "a1", res.Record.ID)
	assert.Equal(t, resolver.StrategySessionID, res.Strategy)
}

func TestIDSuffixSubstitution(t *testing.T) {
	ctx := context.Background()
	source := video("2025_day19_video", "Alpha", bucketURL+"/video/one.mp4")
	candidates := []*model.MediaRecord{
		audio("2025_day18_audio", "Beta", bucketURL+"/audio/two.mp3"),
		audio("2025_day19_audio", "Gamma", bucketURL+"/audio/three.mp3"),
	}

	res := resolver.New().Resolve(ctx, source, model.KindAudio, candidates)
	require.True(t, res.Found())
	assert.Equal(t, "2025_day19_audio", res.Record.ID)
	assert.Equal(t, resolver.StrategyIDSuffix, res.Strategy)

	// The same substitution works towards transcripts.
	tr := &model.MediaRecord{ID: "2025_day19_transcript", Kind: model.KindTranscript, Title: "Delta"}
	res = resolver.New().Resolve(ctx, source, model.KindTranscript, []*model.MediaRecord{tr})
	require.True(t, res.Found())
	assert.Equal(t, "2025_day19_transcript", res.Record.ID)
}

func TestFilenameStemStrategy(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "Recording", "https://insession.idaho.gov/IIS/2025/House/Chambers/HouseChambers01-24-2025.mp4")
	candidates := []*model.MediaRecord{
		audio("a0", "Other", bucketURL+"/audio/HouseChambers01-23-2025.mp3"),
		audio("a1", "Other", bucketURL+"/audio/HouseChambers01-24-2025.mp3"),
	}

	res := resolver.New().Resolve(ctx, source, model.KindAudio, candidates)
	require.True(t, res.Found())
	assert.Equal(t, "a1", res.Record.ID)
	assert.Equal(t, resolver.StrategyFilenameStem, res.Strategy)
}

func TestChamberDate(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "Senate Chambers 02-03-2025", bucketURL+"/video/upload-77.mp4")

	wrongChamber := audio("a0", "House Chambers - Session Day 20", "")
	wrongChamber.Date = "2025-02-03"
	noDate := audio("a1", "Senate Chambers - Session Day 20", "")
	match := audio("a2", "Session Day 20", "")
	match.Category = "Senate Chambers"
	match.Date = "2025-02-03"

	res := resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{wrongChamber, noDate, match})
	require.True(t, res.Found())
	assert.Equal(t, "a2", res.Record.ID)
	assert.Equal(t, resolver.StrategyChamberDate, res.Strategy)
}

func TestChamberDateRequiresBothTokens(t *testing.T) {
	source := video("v1", "Senate Chambers", "")
	cand := audio("a1", "Senate Chambers", "")
	cand.Date = "02-03-2025"
	assert.Nil(t, resolver.MatchChamberDate(context.Background(), source, model.KindAudio, []*model.MediaRecord{cand}))
}

func TestSessionDayAndYear(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "House Chambers - Session Day 19", "")
	source.Year = "2025"

	lastYear := audio("a0", "Audio Session Day 19", bucketURL+"/audio/x.mp3")
	lastYear.Year = "2024"
	prefix := audio("a1", "Audio Session Day 1", bucketURL+"/audio/y.mp3")
	prefix.Year = "2025"
	match := audio("a2", "Audio Session Day 19", bucketURL+"/audio/z.mp3")
	match.Year = "2025"

	res := resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{lastYear, prefix, match})
	require.True(t, res.Found())
	assert.Equal(t, "a2", res.Record.ID)
	assert.Equal(t, resolver.StrategySessionDayYear, res.Strategy)
}

func TestFuzzyTitleThreshold(t *testing.T) {
	ctx := context.Background()
	// Six significant tokens, so three are required.
	source := video("v1", "Appropriations Committee Budget Hearing Education Funding", "")

	three := audio("a1", "Budget Hearing Funding Review", "")
	res := resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{three})
	require.True(t, res.Found())
	assert.Equal(t, "a1", res.Record.ID)
	assert.Equal(t, resolver.StrategyFuzzyTitle, res.Strategy)

	two := audio("a2", "Budget Hearing Review", "")
	res = resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{two})
	assert.False(t, res.Found())
	assert.Empty(t, res.Strategy)
}

func TestFuzzyTitleIgnoresShortTokensAndStopwords(t *testing.T) {
	tokens := resolver.SignificantTokens("The House and Senate met with the Governor on Day 4", 4, []string{"the", "and", "with"})
	assert.Equal(t, []string{"House", "Senate", "Governor"}, tokens)
}

func TestFuzzyTitleTieKeepsFirstCandidate(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "Education Funding", "")
	first := audio("a1", "education funding part one", "")
	second := audio("a2", "Education Funding part two", "")
	pool := []*model.MediaRecord{first, second}

	r := resolver.New()
	for i := 0; i < 10; i++ {
		res := r.Resolve(ctx, source, model.KindAudio, pool)
		require.True(t, res.Found())
		assert.Equal(t, "a1", res.Record.ID)
	}
}

func TestFuzzyTitleIgnoresCaseUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "APPROPRIATIONS Committee BUDGET Hearing", "")
	pool := []*model.MediaRecord{
		audio("a1", "Senate Floor Session", ""),
		audio("a2", "appropriations committee budget hearing", ""),
	}
	r := resolver.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := r.Resolve(ctx, source, model.KindAudio, pool)
			assert.True(t, res.Found())
			if res.Found() {
				assert.Equal(t, "a2", res.Record.ID)
			}
		}()
	}
	wg.Wait()
}

func TestConfigurableFuzzyThreshold(t *testing.T) {
	ctx := context.Background()
	source := video("v1", "Appropriations Committee Budget Hearing", "")
	cand := audio("a1", "Budget Hearing", "")

	assert.True(t, resolver.New().Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{cand}).Found())

	strict := resolver.New(resolver.WithOptions(resolver.Options{FuzzyThreshold: 1}))
	assert.False(t, strict.Resolve(ctx, source, model.KindAudio, []*model.MediaRecord{cand}).Found())
}

func TestEmptyPool(t *testing.T) {
	source := video("v1", "House Chambers - Session Day 19", bucketURL+"/video/a.mp4")
	source.SessionID = "s1"
	source.Year = "2025"

	res := resolver.New().Resolve(context.Background(), source, model.KindAudio, nil)
	assert.False(t, res.Found())

	res = resolver.New().Resolve(context.Background(), source, model.KindAudio, []*model.MediaRecord{})
	assert.False(t, res.Found())
}

func TestMalformedSource(t *testing.T) {
	cand := audio("a1", "Anything", bucketURL+"/audio/a.mp3")
	cand.SessionID = "s1"

	assert.False(t, resolver.New().Resolve(context.Background(), nil, model.KindAudio, []*model.MediaRecord{cand}).Found())

	noTitleNoURL := &model.MediaRecord{ID: "v1", Kind: model.KindVideo, SessionID: "s1"}
	assert.False(t, resolver.New().Resolve(context.Background(), noTitleNoURL, model.KindAudio, []*model.MediaRecord{cand}).Found())
}

func TestDirectReferenceFetchFailureFallsBackToStub(t *testing.T) {
	fetcher := &failingFetcher{}
	source := video("v1", "House Chambers - Session Day 19", "")
	source.RelatedAudioID = "a1"
	source.RelatedAudioURL = bucketURL + "/audio/a1.mp3"

	res := resolver.New(resolver.WithFetcher(fetcher)).Resolve(context.Background(), source, model.KindAudio, nil)
	require.True(t, res.Found())
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, resolver.StrategyDirectReference, res.Strategy)
	assert.Equal(t, "a1", res.Record.ID)
	assert.Equal(t, bucketURL+"/audio/a1.mp3", res.Record.URL)
	assert.Equal(t, model.KindAudio, res.Record.Kind)
}

func TestDirectReferenceFetchFound(t *testing.T) {
	full := audio("a1", "House Chambers - Session Day 19", bucketURL+"/audio/a1.mp3")
	full.Duration = "03:12:44"
	fetcher := resolver.FetchFunc(func(_ context.Context, kind model.MediaKind, id string) resolver.FetchResult {
		if kind == model.KindAudio && id == "a1" {
			return resolver.Found(full)
		}
		return resolver.NotFound()
	})
	source := video("v1", "House Chambers - Session Day 19", "")
	source.RelatedAudioID = "a1"

	res := resolver.New(resolver.WithFetcher(fetcher)).Resolve(context.Background(), source, model.KindAudio, nil)
	require.True(t, res.Found())
	assert.Same(t, full, res.Record)
}

func TestDirectReferenceNotFoundContinuesCascade(t *testing.T) {
	fetcher := resolver.FetchFunc(func(context.Context, model.MediaKind, string) resolver.FetchResult {
		return resolver.NotFound()
	})
	source := video("v1", "House Chambers - Session Day 19", "")
	source.RelatedAudioID = "deleted"
	source.RelatedAudioURL = bucketURL + "/audio/deleted.mp3"
	source.SessionID = "s1"
	sibling := audio("a2", "x", "")
	sibling.SessionID = "s1"

	res := resolver.New(resolver.WithFetcher(fetcher)).Resolve(context.Background(), source, model.KindAudio, []*model.MediaRecord{sibling})
	require.True(t, res.Found())
	assert.Equal(t, "a2", res.Record.ID)
	assert.Equal(t, resolver.StrategySessionID, res.Strategy)
}

func TestDirectReferenceWithoutFetcherUsesStub(t *testing.T) {
	source := video("v1", "Title", "")
	source.RelatedTranscriptURL = bucketURL + "/transcripts/t.txt"

	res := resolver.New().Resolve(context.Background(), source, model.KindTranscript, nil)
	require.True(t, res.Found())
	assert.Equal(t, bucketURL+"/transcripts/t.txt", res.Record.URL)
	assert.Empty(t, res.Record.ID)
}

func TestCandidatesOfOtherKindsAreIgnored(t *testing.T) {
	source := video("v1", "Title", "")
	source.SessionID = "s1"
	otherVideo := video("v2", "Title", "")
	otherVideo.SessionID = "s1"

	res := resolver.New().Resolve(context.Background(), source, model.KindAudio, []*model.MediaRecord{nil, otherVideo})
	assert.False(t, res.Found())
}

func TestCustomStrategyOrder(t *testing.T) {
	source := video("v1", "Education Funding", "")
	source.SessionID = "s1"
	bySession := audio("a1", "nothing alike", "")
	bySession.SessionID = "s1"
	byTitle := audio("a2", "Education Funding", "")

	r := resolver.New(resolver.WithStrategies(
		resolver.FuzzyTitle(resolver.DefaultOptions()),
		resolver.Strategy{Name: resolver.StrategySessionID, Match: resolver.MatchSessionID},
	))
	res := r.Resolve(context.Background(), source, model.KindAudio, []*model.MediaRecord{bySession, byTitle})
	require.True(t, res.Found())
	assert.Equal(t, "a2", res.Record.ID)
	assert.Len(t, r.Strategies(), 2)
}

func TestDefaultCascadeOrder(t *testing.T) {
	names := make([]string, 0)
	for _, s := range resolver.New().Strategies() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		resolver.StrategyDirectReference,
		resolver.StrategySessionID,
		resolver.StrategyIDSuffix,
		resolver.StrategyFilenameStem,
		resolver.StrategyChamberDate,
		resolver.StrategySessionDayYear,
		resolver.StrategyFuzzyTitle,
	}, names)
}
