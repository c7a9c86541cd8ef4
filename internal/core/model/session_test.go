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

package model_test

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSessionMetadata(t *testing.T) {
	meta := model.ExtractSessionMetadata("IIS/2025/House/Chambers/HouseChambers01-24-2025_Day19.mp4")

	assert.Equal(t, "2025", meta.Year)
	assert.Equal(t, model.ChamberHouse, meta.Chamber)
	assert.Equal(t, "2025-01-24", meta.Date)
	assert.Equal(t, 19, meta.SessionDay)
	assert.Equal(t, "HouseChambers01-24-2025_Day19.mp4", meta.FileName)
	assert.Equal(t, "01-24-2025", meta.DisplayDate())
	assert.Equal(t, "House Chambers - Session Day 19", meta.Title())
}

func TestExtractSessionMetadataDefaults(t *testing.T) {
	meta := model.ExtractSessionMetadata("uploads/floor-recording.mp4")

	assert.Equal(t, strconv.Itoa(time.Now().Year()), meta.Year)
	assert.Equal(t, model.ChamberHouse, meta.Chamber)
	assert.Empty(t, meta.Date)
	assert.Equal(t, 1, meta.SessionDay)

	senate := model.ExtractSessionMetadata("senate day 7.mp4")
	assert.Equal(t, model.ChamberSenate, senate.Chamber)
	assert.Equal(t, 7, senate.SessionDay)
}

func TestSessionIDFormat(t *testing.T) {
	meta := model.GetExampleSessionMetadata()

	sum := md5.Sum([]byte("2025-01-24_2025_House_Chambers_Day19"))
	expected := "2025_House_Chambers_Day19_" + hex.EncodeToString(sum[:])[:8]
	assert.Equal(t, expected, meta.SessionID())

	// Without a date the hash input only has the three components.
	meta.Date = ""
	sum = md5.Sum([]byte("2025_House_Chambers_Day19"))
	assert.Equal(t, "2025_House_Chambers_Day19_"+hex.EncodeToString(sum[:])[:8], meta.SessionID())
}

func TestStoragePath(t *testing.T) {
	meta := model.GetExampleSessionMetadata()

	assert.Equal(t, "2025-01-24_HouseChambers_Day19.mp3", meta.FileNameFor("mp3"))
	assert.Equal(t, "audio/2025/House Chambers/19/2025-01-24_HouseChambers_Day19.mp3", meta.StoragePath(model.KindAudio, ".mp3"))

	meta.Date = ""
	assert.Equal(t, "2025-01-01_HouseChambers_Day19.txt", meta.FileNameFor("txt"))
}

func TestApplySessionMetadata(t *testing.T) {
	meta := model.GetExampleSessionMetadata()
	rec := model.NewMediaRecord(model.KindVideo, meta.StoragePath(model.KindVideo, "mp4"))
	meta.Apply(rec)

	require.NotEmpty(t, rec.SessionID)
	assert.Equal(t, meta.SessionID(), rec.SessionID)
	assert.Equal(t, "House Chambers - Session Day 19", rec.Title)
	assert.Equal(t, model.ChamberHouse, rec.Category)
	assert.Equal(t, "2025", rec.Year)
	assert.Equal(t, "2025-01-24", rec.Date)
	assert.Contains(t, rec.Description, "01-24-2025")
}
