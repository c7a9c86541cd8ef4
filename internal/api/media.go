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

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// MediaRouter registers list, get and related routes for every linked kind
// and the stream route for videos.
func (s *Server) MediaRouter(r *gin.RouterGroup) {
	for _, kind := range model.Kinds {
		group := r.Group("/" + kind.Collection())
		{
			group.GET("", s.listHandler(kind))
			group.GET("/:id", s.getHandler(kind))
			group.GET("/:id/related", s.relatedHandler(kind))
			if kind == model.KindVideo {
				group.GET("/:id/stream", s.streamHandler)
			}
		}
	}
}

// ParseListFilter reads the listing query parameters. It returns the filter
// and the with_related flag.
func ParseListFilter(c *gin.Context) (model.ListFilter, bool, error) {
	filter := model.ListFilter{
		Year:     c.Query("year"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Limit:    model.DefaultListLimit,
	}
	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, false, fmt.Errorf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	withRelated := true
	if raw, ok := c.GetQuery("with_related"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, false, fmt.Errorf("invalid with_related %q", raw)
		}
		withRelated = v
	}
	return filter, withRelated, nil
}

func (s *Server) listHandler(kind model.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, withRelated, err := ParseListFilter(c)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
		out, err := s.Media.List(c.Request.Context(), kind, filter, withRelated)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) getHandler(kind model.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.Media.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) relatedHandler(kind model.MediaKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := s.Media.Related(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) streamHandler(c *gin.Context) {
	ttl := s.StreamTTL
	if ttl <= 0 {
		ttl = services.DefaultSignedURLExpiry
	}
	signed, err := s.Media.StreamURL(c.Request.Context(), c.Param("id"), ttl)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signed, "expires_in": int(ttl.Seconds())})
}
