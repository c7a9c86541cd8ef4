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
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// FileUpload registers POST /uploads. Every file of the multipart "files"
// field is streamed into the video bucket, where the finalize notification
// starts ingestion.
func (s *Server) FileUpload(r *gin.RouterGroup) {
	r.POST("/uploads", func(c *gin.Context) {
		if s.Uploads == nil {
			abortWithError(c, http.StatusServiceUnavailable, errors.New("uploads are not configured"))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("get form err: %w", err))
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			abortWithError(c, http.StatusBadRequest, errors.New("no files in the \"files\" field"))
			return
		}

		objects := make([]string, 0, len(files))
		for _, file := range files {
			name, err := services.VideoObjectName(file.Filename)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, err)
				return
			}
			src, err := file.Open()
			if err != nil {
				abortWithError(c, http.StatusBadRequest, fmt.Errorf("upload file err: %w", err))
				return
			}
			obj, _, err := s.Uploads.Upload(c.Request.Context(), name, file.Header.Get("Content-Type"), src, map[string]string{"source": "upload"})
			_ = src.Close()
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, err)
				return
			}
			objects = append(objects, obj.URI())
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Uploaded successfully %d files.", len(objects)),
			"objects": objects,
		})
	})
}
