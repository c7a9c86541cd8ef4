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

package resolver

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var (
	chamberPattern    = regexp.MustCompile(`(?i)(house|senate)\s*chambers?`)
	dateTokenPattern  = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`)
	sessionDayPattern = regexp.MustCompile(`(?i)session\s+day\s+(\d+)`)
)

// ExtractChamber returns the canonical chamber token found in s, either
// "House Chambers" or "Senate Chambers". Spacing and case are ignored, so
// "HouseChambers01-24-2025.mp4" yields "House Chambers". Returns "" when no
// chamber is named.
func ExtractChamber(s string) string {
	m := chamberPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if strings.EqualFold(m[1], "senate") {
		return "Senate Chambers"
	}
	return "House Chambers"
}

// ExtractDate returns the first MM-DD-YYYY token in s, or "".
func ExtractDate(s string) string {
	return dateTokenPattern.FindString(s)
}

// isoDate rewrites an MM-DD-YYYY token as YYYY-MM-DD. Stored records carry
// the ISO form in their date field.
func isoDate(token string) string {
	m := dateTokenPattern.FindStringSubmatch(token)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s-%s", m[3], m[1], m[2])
}

// ExtractSessionDay returns the normalised "Session Day N" token in s, or "".
// Leading zeros are dropped so "session day 019" and "Session Day 19" compare
// equal.
func ExtractSessionDay(s string) string {
	m := sessionDayPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	day := strings.TrimLeft(m[1], "0")
	if day == "" {
		day = "0"
	}
	return "Session Day " + day
}

// LastSegment returns the final path segment of a URL or path, ignoring any
// query string or fragment.
func LastSegment(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// FilenameStem returns the last path segment of a URL without its extension,
// "https://host/a/HouseChambers01-24-2025.mp4" -> "HouseChambers01-24-2025".
func FilenameStem(raw string) string {
	base := LastSegment(raw)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SignificantTokens splits a title on whitespace and drops tokens shorter
// than minLen runes along with the given stopwords (compared case
// insensitively). Order is preserved and duplicates are kept.
func SignificantTokens(title string, minLen int, stopwords []string) []string {
	fold := cases.Fold()
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stop[fold.String(w)] = struct{}{}
	}

	var out []string
	for _, tok := range strings.Fields(title) {
		if utf8.RuneCountInString(tok) < minLen {
			continue
		}
		if _, ok := stop[fold.String(tok)]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// foldAll case-folds every token with one Caser.
func foldAll(fold cases.Caser, tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = fold.String(tok)
	}
	return out
}

// overlap counts the folded tokens found in the already folded title.
func overlap(foldedTitle string, foldedTokens []string) int {
	n := 0
	for _, tok := range foldedTokens {
		if strings.Contains(foldedTitle, tok) {
			n++
		}
	}
	return n
}
