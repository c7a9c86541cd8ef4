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
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/resolver"
)

// StoreFetcher adapts a MediaStore to the resolver's Fetcher. Transient
// read failures are retried with exponential backoff; a missing record is
// reported immediately as FetchNotFound.
type StoreFetcher struct {
	Store           MediaStore
	MaxRetries      uint64
	InitialInterval time.Duration
}

// NewStoreFetcher retries up to three times starting at 200ms.
func NewStoreFetcher(store MediaStore) *StoreFetcher {
	return &StoreFetcher{Store: store, MaxRetries: 3, InitialInterval: 200 * time.Millisecond}
}

func (f *StoreFetcher) FetchByID(ctx context.Context, kind model.MediaKind, id string) resolver.FetchResult {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.InitialInterval
	policy.MaxInterval = 5 * time.Second

	var rec *model.MediaRecord
	op := func() error {
		r, err := f.Store.Get(ctx, kind, id)
		if errors.Is(err, ErrNotFound) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return err
		}
		rec = r
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, f.MaxRetries), ctx))
	switch {
	case err == nil:
		return resolver.Found(rec)
	case errors.Is(err, ErrNotFound):
		return resolver.NotFound()
	default:
		return resolver.Failed(err)
	}
}
