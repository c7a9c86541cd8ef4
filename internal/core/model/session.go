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

package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ChamberHouse  = "House Chambers"
	ChamberSenate = "Senate Chambers"
)

var (
	yearPattern       = regexp.MustCompile(`20\d{2}`)
	datePattern       = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`)
	sessionDayPattern = regexp.MustCompile(`(?i)day[_\s]?(\d+)`)
)

// SessionMetadata is what can be learned about a floor session from the name
// of one of its recordings.
type SessionMetadata struct {
	Year       string // e.g. "2025"
	Chamber    string // ChamberHouse or ChamberSenate
	Date       string // ISO form, "2025-01-24"; empty when the name carries no date
	SessionDay int
	FileName   string // base name of the source object
}

// ExtractSessionMetadata parses year, chamber, date and session day out of a
// file path. Missing values fall back to the current year, the House chamber
// and session day 1.
func ExtractSessionMetadata(filePath string) *SessionMetadata {
	out := &SessionMetadata{FileName: path.Base(filePath)}

	if m := yearPattern.FindString(filePath); m != "" {
		out.Year = m
	}

	lower := strings.ToLower(filePath)
	switch {
	case strings.Contains(lower, "house"):
		out.Chamber = ChamberHouse
	case strings.Contains(lower, "senate"):
		out.Chamber = ChamberSenate
	default:
		out.Chamber = ChamberHouse
	}

	if m := datePattern.FindStringSubmatch(filePath); m != nil {
		out.Date = fmt.Sprintf("%s-%s-%s", m[3], m[1], m[2])
		if out.Year == "" {
			out.Year = m[3]
		}
	}

	out.SessionDay = 1
	if m := sessionDayPattern.FindStringSubmatch(filePath); m != nil {
		if day, err := strconv.Atoi(m[1]); err == nil && day > 0 {
			out.SessionDay = day
		}
	}

	if out.Year == "" {
		out.Year = strconv.Itoa(time.Now().Year())
	}
	return out
}

func (s *SessionMetadata) chamberToken() string {
	return strings.ReplaceAll(s.Chamber, " ", "_")
}

// SessionID is the identifier shared by every artifact of the session,
// "<year>_<Chamber>_Day<N>_<hash>".
func (s *SessionMetadata) SessionID() string {
	components := []string{s.Year, s.chamberToken(), fmt.Sprintf("Day%d", s.SessionDay)}
	if s.Date != "" {
		components = append([]string{s.Date}, components...)
	}
	sum := md5.Sum([]byte(strings.Join(components, "_")))
	return fmt.Sprintf("%s_%s_Day%d_%s", s.Year, s.chamberToken(), s.SessionDay, hex.EncodeToString(sum[:])[:8])
}

// Title is the human readable session title, e.g. "House Chambers - Session Day 19".
func (s *SessionMetadata) Title() string {
	return fmt.Sprintf("%s - Session Day %d", s.Chamber, s.SessionDay)
}

// FileNameFor builds the canonical artifact name, "2025-01-24_HouseChambers_Day19.mp3".
func (s *SessionMetadata) FileNameFor(ext string) string {
	date := s.Date
	if date == "" {
		date = s.Year + "-01-01"
	}
	return fmt.Sprintf("%s_%s_Day%d.%s", date, strings.ReplaceAll(s.Chamber, " ", ""), s.SessionDay, strings.TrimPrefix(ext, "."))
}

// StoragePath builds "<kind>/<year>/<chamber>/<day>/<file>".
func (s *SessionMetadata) StoragePath(kind MediaKind, ext string) string {
	return fmt.Sprintf("%s/%s/%s/%d/%s", kind, s.Year, s.Chamber, s.SessionDay, s.FileNameFor(ext))
}

// DisplayDate is the date as it appears in legislature file names, "01-24-2025".
func (s *SessionMetadata) DisplayDate() string {
	if s.Date == "" {
		return ""
	}
	parts := strings.Split(s.Date, "-")
	if len(parts) != 3 {
		return s.Date
	}
	return fmt.Sprintf("%s-%s-%s", parts[1], parts[2], parts[0])
}

// Apply copies the session fields onto a record.
func (s *SessionMetadata) Apply(rec *MediaRecord) {
	rec.Year = s.Year
	rec.Category = s.Chamber
	rec.Chamber = s.Chamber
	rec.Date = s.Date
	rec.SessionDay = s.SessionDay
	rec.SessionID = s.SessionID()
	rec.SessionName = s.Title()
	rec.Title = s.Title()
	rec.OriginalFileName = s.FileName
	if s.Date != "" {
		rec.Description = fmt.Sprintf("%s floor session, day %d, recorded %s", s.Chamber, s.SessionDay, s.DisplayDate())
	} else {
		rec.Description = fmt.Sprintf("%s floor session, day %d", s.Chamber, s.SessionDay)
	}
}
