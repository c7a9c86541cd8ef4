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

// Package api exposes the media portal over HTTP. All routes live under
// "/api/v1":
//
//   - GET  /health
//   - GET  /videos, /audio, /transcripts (year, category, search, limit, with_related)
//   - GET  /<collection>/:id and /<collection>/:id/related
//   - GET  /videos/:id/stream
//   - GET  /stats and /filters
//   - POST /uploads
//
// Failures are reported as {"error": true, "message": ..., "timestamp": ...}.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// MediaReader is the read side of the portal.
type MediaReader interface {
	List(ctx context.Context, kind model.MediaKind, filter model.ListFilter, withRelated bool) ([]*model.MediaRecord, error)
	Get(ctx context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error)
	Related(ctx context.Context, kind model.MediaKind, id string) (*model.RelatedMedia, error)
	StreamURL(ctx context.Context, id string, expires time.Duration) (string, error)
	Stats(ctx context.Context) (*model.MediaStats, error)
	Filters(ctx context.Context) (*model.FilterOptions, error)
}

// VideoUploader stores uploaded recordings in the video bucket.
type VideoUploader interface {
	Upload(ctx context.Context, name string, declared string, body io.Reader, metadata map[string]string) (*cloud.GCSObject, int64, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Media       MediaReader
	Uploads     VideoUploader
	ServiceName string
	Version     string
	StreamTTL   time.Duration
}

// NewRouter builds the gin engine with tracing and permissive CORS.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.ServiceName))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		s.HealthRouter(apiV1)
		s.MediaRouter(apiV1)
		s.Dashboard(apiV1)
		s.FileUpload(apiV1)
	}
	return r
}

// HealthRouter registers the liveness probe.
func (s *Server) HealthRouter(r *gin.RouterGroup) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   s.ServiceName,
			"version":   s.Version,
		})
	})
}

// abortWithError writes the error envelope. ErrNotFound becomes a 404,
// anything else the given status.
func abortWithError(c *gin.Context, status int, err error) {
	if errors.Is(err, services.ErrNotFound) {
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":     true,
		"message":   err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
