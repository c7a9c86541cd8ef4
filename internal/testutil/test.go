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

// Package test provides helpers shared by the package tests: loading the
// "test" runtime configuration from the repository's configs directory and
// canned GCS notification payloads.
package test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
)

var (
	configOnce sync.Once
	config     *cloud.Config
	configErr  error
)

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ConfigDir is the absolute path of the repository's configs directory.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the config loader at the repository configs with the
// "test" runtime.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once per test binary.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	configOnce.Do(func() {
		if configErr = SetupOS(); configErr != nil {
			return
		}
		config = cloud.NewConfig()
		configErr = cloud.LoadConfig(config)
	})
	HandleErr(configErr, t)
	return config
}

// GetTestVideoMessageText is a finalize notification for a session video.
func GetTestVideoMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "legislative-media-video/video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4/1737763200000000",
  "selfLink": "https://www.googleapis.com/storage/v1/b/legislative-media-video/o/video%2F2025%2FHouse%20Chambers%2F19%2FHouseChambers01-24-2025_Day19.mp4",
  "name": "video/2025/House Chambers/19/HouseChambers01-24-2025_Day19.mp4",
  "bucket": "legislative-media-video",
  "generation": "1737763200000000",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2025-01-25T00:00:00.000Z",
  "updated": "2025-01-25T00:00:00.000Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2025-01-25T00:00:00.000Z",
  "size": "2593480370",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/legislative-media-video/o/video%2F2025%2FHouse%20Chambers%2F19%2FHouseChambers01-24-2025_Day19.mp4?generation=1737763200000000&alt=media",
  "metadata": { "source": "insession.idaho.gov" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// GetTestTextMessageText is a notification for an object that is not a video.
func GetTestTextMessageText() string {
	return `{
  "kind": "storage#object",
  "name": "notes/readme.txt",
  "bucket": "legislative-media-video",
  "contentType": "text/plain",
  "size": "12"
}`
}
