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
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/patrickmn/go-cache"
)

// CandidatePools caches the full listing of each kind so that query-time
// relationship lookups do not rescan a collection per request. Pools are
// shared read-only; callers must Clone a record before changing it.
type CandidatePools struct {
	store MediaStore
	cache *cache.Cache
}

// NewCandidatePools keeps each pool for ttl.
func NewCandidatePools(store MediaStore, ttl time.Duration) *CandidatePools {
	return &CandidatePools{store: store, cache: cache.New(ttl, 2*ttl)}
}

// Pool returns every record of kind, from the cache when fresh.
func (p *CandidatePools) Pool(ctx context.Context, kind model.MediaKind) ([]*model.MediaRecord, error) {
	if v, ok := p.cache.Get(string(kind)); ok {
		return v.([]*model.MediaRecord), nil
	}
	pool, err := p.store.List(ctx, kind, model.ListFilter{})
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(string(kind), pool)
	return pool, nil
}

// Invalidate drops the cached pool of kind, e.g. after ingestion added to it.
func (p *CandidatePools) Invalidate(kind model.MediaKind) {
	p.cache.Delete(string(kind))
}

// Watch wraps store so that every write drops the pool of the written kind.
// Ingestion and link runs write through the wrapped store so the query path
// sees new sessions before the TTL expires.
func (p *CandidatePools) Watch(store MediaStore) MediaStore {
	return &watchedStore{MediaStore: store, pools: p}
}

type watchedStore struct {
	MediaStore
	pools *CandidatePools
}

func (s *watchedStore) Save(ctx context.Context, rec *model.MediaRecord) error {
	err := s.MediaStore.Save(ctx, rec)
	s.pools.Invalidate(rec.Kind)
	return err
}

func (s *watchedStore) UpdateRelations(ctx context.Context, rel model.Relation) error {
	err := s.MediaStore.UpdateRelations(ctx, rel)
	s.pools.Invalidate(rel.SourceKind)
	return err
}
