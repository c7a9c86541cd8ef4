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

// Package services implements the business operations of the portal on top
// of the metadata store. This file defines the MediaStore abstraction and
// its Firestore implementation.
//
// Layout:
// Each media kind lives in its own collection (videos, audio, transcripts,
// other). Documents are keyed by the record id. Firestore has no full-text
// search, so text search is applied client-side after the equality filters
// (year, category) have been pushed to the server.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("media record not found")

// MediaStore persists media records.
type MediaStore interface {
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error)

	// List returns the records of one kind that satisfy the filter. A zero
	// Limit returns every match.
	List(ctx context.Context, kind model.MediaKind, filter model.ListFilter) ([]*model.MediaRecord, error)

	// Save creates or replaces a record.
	Save(ctx context.Context, rec *model.MediaRecord) error

	// UpdateRelations writes one cross reference onto an existing record.
	UpdateRelations(ctx context.Context, rel model.Relation) error

	// Count returns the number of records of one kind.
	Count(ctx context.Context, kind model.MediaKind) (int64, error)
}

// FirestoreStore is the Firestore implementation of MediaStore.
type FirestoreStore struct {
	client      *firestore.Client
	collections map[model.MediaKind]string
}

// NewFirestoreStore maps every kind onto the collection named in the config.
func NewFirestoreStore(client *firestore.Client, config cloud.Firestore) *FirestoreStore {
	collections := map[model.MediaKind]string{
		model.KindVideo:      config.VideosCollection,
		model.KindAudio:      config.AudioCollection,
		model.KindTranscript: config.TranscriptsCollection,
		model.KindOther:      config.OtherCollection,
	}
	for kind, name := range collections {
		if name == "" {
			collections[kind] = kind.Collection()
		}
	}
	return &FirestoreStore{client: client, collections: collections}
}

func (s *FirestoreStore) collection(kind model.MediaKind) *firestore.CollectionRef {
	name, ok := s.collections[kind]
	if !ok {
		name = s.collections[model.KindOther]
	}
	return s.client.Collection(name)
}

func (s *FirestoreStore) Get(ctx context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	doc, err := s.collection(kind).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}
	return decode(doc, kind)
}

func decode(doc *firestore.DocumentSnapshot, kind model.MediaKind) (*model.MediaRecord, error) {
	rec := &model.MediaRecord{}
	if err := doc.DataTo(rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", doc.Ref.Path, err)
	}
	if rec.ID == "" {
		rec.ID = doc.Ref.ID
	}
	if rec.Kind == "" {
		rec.Kind = kind
	}
	return rec, nil
}

func (s *FirestoreStore) List(ctx context.Context, kind model.MediaKind, filter model.ListFilter) ([]*model.MediaRecord, error) {
	q := s.collection(kind).Query
	if filter.Year != "" {
		q = q.Where("year", "==", filter.Year)
	}
	if filter.Category != "" {
		q = q.Where("category", "==", filter.Category)
	}
	// With a search term the limit applies to the matches, not the scan.
	if filter.Search == "" && filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]*model.MediaRecord, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}
		rec, err := decode(doc, kind)
		if err != nil {
			return nil, err
		}
		if !MatchesSearch(rec, filter.Search) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *FirestoreStore) Save(ctx context.Context, rec *model.MediaRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record has no id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = time.Now().UTC()
	if _, err := s.collection(rec.Kind).Doc(rec.ID).Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

func (s *FirestoreStore) UpdateRelations(ctx context.Context, rel model.Relation) error {
	idField, urlField := rel.FieldNames()
	updates := []firestore.Update{
		{Path: idField, Value: rel.TargetID},
		{Path: "updated_at", Value: firestore.ServerTimestamp},
	}
	if rel.TargetURL != "" {
		updates = append(updates, firestore.Update{Path: urlField, Value: rel.TargetURL})
	}
	_, err := s.collection(rel.SourceKind).Doc(rel.SourceID).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s %s: %w", rel.SourceKind, rel.SourceID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", rel.SourceKind, rel.SourceID, err)
	}
	return nil
}

func (s *FirestoreStore) Count(ctx context.Context, kind model.MediaKind) (int64, error) {
	res, err := s.collection(kind).NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count result for %s: %T", kind, res["all"])
	}
	return v.GetIntegerValue(), nil
}
