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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/legislative-media-portal/internal/api"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	records     map[string]*model.MediaRecord
	lastKind    model.MediaKind
	lastFilter  model.ListFilter
	lastRelated bool
	lastExpires time.Duration
	failAll     error
}

func (f *fakeMedia) List(_ context.Context, kind model.MediaKind, filter model.ListFilter, withRelated bool) ([]*model.MediaRecord, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}
	f.lastKind, f.lastFilter, f.lastRelated = kind, filter, withRelated
	out := make([]*model.MediaRecord, 0)
	for _, rec := range f.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeMedia) Get(_ context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error) {
	rec, ok := f.records[id]
	if !ok || rec.Kind != kind {
		return nil, fmt.Errorf("%s %s: %w", kind, id, services.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeMedia) Related(ctx context.Context, kind model.MediaKind, id string) (*model.RelatedMedia, error) {
	source, err := f.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &model.RelatedMedia{
		Source:        source,
		Audio:         f.records["a1"],
		AudioStrategy: "session_id",
	}, nil
}

func (f *fakeMedia) StreamURL(ctx context.Context, id string, expires time.Duration) (string, error) {
	f.lastExpires = expires
	if _, err := f.Get(ctx, model.KindVideo, id); err != nil {
		return "", err
	}
	return "https://storage.googleapis.com/signed/" + id, nil
}

func (f *fakeMedia) Stats(context.Context) (*model.MediaStats, error) {
	return &model.MediaStats{Videos: 1, Audio: 1, Transcripts: 0, Total: 2}, nil
}

func (f *fakeMedia) Filters(context.Context) (*model.FilterOptions, error) {
	return &model.FilterOptions{Years: []string{"2024", "2025"}, Categories: []string{"House Chambers"}}, nil
}

type fakeUploader struct {
	names  []string
	bodies []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, declared string, body io.Reader, _ map[string]string) (*cloud.GCSObject, int64, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, 0, err
	}
	f.names = append(f.names, name)
	f.bodies = append(f.bodies, string(data))
	return &cloud.GCSObject{Bucket: "legislative-media-video", Name: name, MIMEType: declared}, int64(len(data)), nil
}

func newTestServer() (*api.Server, *fakeMedia, *fakeUploader) {
	gin.SetMode(gin.TestMode)
	video := &model.MediaRecord{ID: "v1", Kind: model.KindVideo, SessionName: "House Chambers Day 19"}
	audio := &model.MediaRecord{ID: "a1", Kind: model.KindAudio, SessionName: "House Chambers Day 19"}
	media := &fakeMedia{records: map[string]*model.MediaRecord{"v1": video, "a1": audio}}
	uploads := &fakeUploader{}
	return &api.Server{Media: media, Uploads: uploads, ServiceName: "legislative-media-portal", Version: "test"}, media, uploads
}

func serve(t *testing.T, s *api.Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	api.NewRouter(s).ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestListDefaults(t *testing.T) {
	s, media, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.KindVideo, media.lastKind)
	assert.Equal(t, model.DefaultListLimit, media.lastFilter.Limit)
	assert.True(t, media.lastRelated)

	var out []*model.MediaRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "v1", out[0].ID)
}

func TestListQueryParameters(t *testing.T) {
	s, media, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/transcripts?year=2025&category=House+Chambers&search=quorum&limit=5&with_related=false", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.KindTranscript, media.lastKind)
	assert.Equal(t, model.ListFilter{Year: "2025", Category: "House Chambers", Search: "quorum", Limit: 5}, media.lastFilter)
	assert.False(t, media.lastRelated)
}

func TestListRejectsBadLimit(t *testing.T) {
	s, _, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/audio?limit=zero", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["error"])
	assert.Contains(t, body["message"], "limit")
}

func TestGetAndNotFound(t *testing.T) {
	s, _, _ := newTestServer()

	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/audio/a1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", decodeBody(t, w)["id"])

	w = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/videos/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["error"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRelated(t *testing.T) {
	s, _, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/related", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "session_id", body["audio_strategy"])
	assert.NotNil(t, body["audio"])
	assert.Nil(t, body["transcript"])
}

func TestStream(t *testing.T) {
	s, media, _ := newTestServer()
	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/stream", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "https://storage.googleapis.com/signed/v1", body["url"])
	assert.Equal(t, float64(900), body["expires_in"])
	assert.Equal(t, services.DefaultSignedURLExpiry, media.lastExpires)

	w = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/audio/a1/stream", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsAndFilters(t *testing.T) {
	s, _, _ := newTestServer()

	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["total"])

	w = serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/filters", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"2024", "2025"}, decodeBody(t, w)["years"])
}

func TestInternalErrorEnvelope(t *testing.T) {
	s, media, _ := newTestServer()
	media.failAll = errors.New("firestore unavailable")

	w := serve(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "firestore unavailable", decodeBody(t, w)["message"])
}

func TestUpload(t *testing.T) {
	s, _, uploads := newTestServer()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("files", "HouseChambers01-24-2025_Day19.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("video bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := serve(t, s, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"video/2025/House Chambers/HouseChambers01-24-2025_Day19.mp4"}, uploads.names)
	assert.Equal(t, []string{"video bytes"}, uploads.bodies)
	assert.Equal(t, "Uploaded successfully 1 files.", decodeBody(t, w)["message"])
}

func TestUploadWithoutFiles(t *testing.T) {
	s, _, _ := newTestServer()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("note", "empty"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	w := serve(t, s, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
