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

// Package commands holds the individual steps of the ingestion and download
// workflows. This file defines the download step that copies a recording
// from the legislature site into the video bucket.
//
// Logic Flow:
//  1. The recording URL is fetched with the configured user agent and
//     timeout. Recordings are several gigabytes, so the body is streamed and
//     never buffered in full.
//  2. The first bytes are sniffed to set the content type; the site often
//     serves video as application/octet-stream.
//  3. The body is written to "video/<year>/<chamber>/<file>" in the video
//     bucket. The finalize notification of that object starts ingestion.
package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// RenderDownloadURL renders the URL template of a category for one date.
func RenderDownloadURL(category cloud.Category, baseURL string, date time.Time) (string, error) {
	if category.URLTemplate == "" {
		return "", fmt.Errorf("category %q has no url template", category.Name)
	}
	tmpl, err := template.New(category.Name).Parse(category.URLTemplate)
	if err != nil {
		return "", fmt.Errorf("invalid url template for %q: %w", category.Name, err)
	}
	var buffer bytes.Buffer
	err = tmpl.Execute(&buffer, map[string]string{
		"Base": baseURL,
		"Year": date.Format("2006"),
		"MM":   date.Format("01"),
		"DD":   date.Format("02"),
	})
	if err != nil {
		return "", err
	}
	return buffer.String(), nil
}

// DownloadObjectName is where a downloaded recording is stored.
func DownloadObjectName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(u.Path, "/") || u.Path == "" {
		return "", fmt.Errorf("no file name in %s", rawURL)
	}
	return services.VideoObjectName(u.Path)
}

// MediaDownload fetches a recording URL into the video bucket.
type MediaDownload struct {
	cor.BaseCommand
	httpClient *http.Client
	uploader   *services.BucketUploader
	userAgent  string
}

func NewMediaDownload(name string, storageClient *storage.Client, bucket string, config cloud.Downloader) *MediaDownload {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	return &MediaDownload{
		BaseCommand: *cor.NewBaseCommand(name),
		httpClient:  &http.Client{Timeout: timeout},
		uploader:    services.NewBucketUploader(storageClient, bucket),
		userAgent:   config.UserAgent,
	}
}

func (c *MediaDownload) Execute(context cor.Context) {
	rawURL := context.Get(c.GetInputParam()).(string)
	ctx := context.GetContext()

	objectName, err := DownloadObjectName(rawURL)
	if err != nil {
		c.Fail(context, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to fetch %s: %w", rawURL, err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.Fail(context, fmt.Errorf("failed to fetch %s: %s", rawURL, resp.Status))
		return
	}

	target, written, err := c.uploader.Upload(ctx, objectName, resp.Header.Get("Content-Type"), resp.Body, map[string]string{"source_url": rawURL})
	if err != nil {
		c.Fail(context, fmt.Errorf("download of %s failed: %w", rawURL, err))
		return
	}

	c.Succeed(context)
	slog.InfoContext(ctx, "downloaded recording", "url", rawURL, "object", target.URI(), "bytes", written, "content_type", target.MIMEType)
	context.Add(c.GetOutputParam(), target)
}
