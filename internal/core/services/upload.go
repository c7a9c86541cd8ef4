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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

// SniffLength is the number of leading bytes inspected for the content type.
const SniffLength = 262

// VideoObjectName is where an incoming recording is stored in the video
// bucket: "video/<year>/<chamber>/<file>".
func VideoObjectName(file string) (string, error) {
	file = path.Base(file)
	if file == "." || file == "/" || file == "" {
		return "", fmt.Errorf("invalid file name %q", file)
	}
	meta := model.ExtractSessionMetadata(file)
	return fmt.Sprintf("%s/%s/%s/%s", model.KindVideo, meta.Year, meta.Chamber, file), nil
}

// SniffContentType detects the type from the first bytes, falling back to
// the declared type.
func SniffContentType(head []byte, declared string) string {
	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if declared == "" {
		return "application/octet-stream"
	}
	return declared
}

// BucketUploader streams recordings into one bucket.
type BucketUploader struct {
	Open   cloud.ObjectOpener
	Bucket string
}

func NewBucketUploader(client *storage.Client, bucket string) *BucketUploader {
	return &BucketUploader{Open: cloud.StorageOpener(client), Bucket: bucket}
}

// Upload copies body to the named object without buffering it in memory.
// The content type is sniffed from the first bytes.
func (u *BucketUploader) Upload(ctx context.Context, name string, declared string, body io.Reader, metadata map[string]string) (*cloud.GCSObject, int64, error) {
	reader := bufio.NewReaderSize(body, 64*1024)
	head, err := reader.Peek(SniffLength)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, 0, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(head) == 0 {
		return nil, 0, fmt.Errorf("refusing to store empty object %s", name)
	}

	target := &cloud.GCSObject{
		Bucket:   u.Bucket,
		Name:     name,
		MIMEType: SniffContentType(head, declared),
	}
	written, err := cloud.WriteObject(ctx, u.Open, target, metadata, reader)
	if err != nil {
		return nil, written, err
	}
	return target, written, nil
}
