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
	"context"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// FetchStatus is the outcome of a lookup by id.
type FetchStatus int

const (
	// FetchFound means the record exists and was returned.
	FetchFound FetchStatus = iota
	// FetchNotFound means the store answered and the record does not exist.
	FetchNotFound
	// FetchFailed means the store could not answer.
	FetchFailed
)

func (s FetchStatus) String() string {
	switch s {
	case FetchFound:
		return "found"
	case FetchNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// FetchResult carries the record for FetchFound and the cause for FetchFailed.
type FetchResult struct {
	Status FetchStatus
	Record *model.MediaRecord
	Err    error
}

// Found wraps a fetched record.
func Found(rec *model.MediaRecord) FetchResult {
	return FetchResult{Status: FetchFound, Record: rec}
}

// NotFound is the result for a missing record.
func NotFound() FetchResult {
	return FetchResult{Status: FetchNotFound}
}

// Failed wraps a lookup error.
func Failed(err error) FetchResult {
	return FetchResult{Status: FetchFailed, Err: err}
}

// Fetcher looks up a single record by kind and id.
type Fetcher interface {
	FetchByID(ctx context.Context, kind model.MediaKind, id string) FetchResult
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, kind model.MediaKind, id string) FetchResult

// FetchByID calls f.
func (f FetchFunc) FetchByID(ctx context.Context, kind model.MediaKind, id string) FetchResult {
	return f(ctx, kind, id)
}
