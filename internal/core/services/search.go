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

package services

import (
	"strings"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"golang.org/x/text/cases"
)

// MatchesSearch reports whether the case-folded term occurs in the session
// name, title or category of rec, or in the content of a transcript. An
// empty term matches everything.
func MatchesSearch(rec *model.MediaRecord, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	fold := cases.Fold()
	needle := fold.String(term)

	fields := []string{rec.SessionName, rec.Title, rec.Category}
	if rec.Kind == model.KindTranscript {
		fields = append(fields, rec.Content)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}
