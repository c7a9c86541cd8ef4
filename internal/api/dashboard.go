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
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard registers the collection counts and the filter values used by
// the portal's landing page.
func (s *Server) Dashboard(r *gin.RouterGroup) {
	r.GET("/stats", func(c *gin.Context) {
		out, err := s.Media.Stats(c.Request.Context())
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/filters", func(c *gin.Context) {
		out, err := s.Media.Filters(c.Request.Context())
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
