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

// Package cloud provides the configuration and the Google Cloud clients used
// across the portal. This file defines the GCS notification payload, the
// simplified object reference passed between commands, and helpers that
// convert between object references and their public URLs.
package cloud

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// GetGCSObjectName is the context key under which the triggering object is
// stored for the whole chain.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload GCS publishes for object
// finalize events.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`                    // The kind of the object, typically "storage#object".
	ID                      string                 `json:"id"`                      // The full ID of the object, including bucket and generation.
	SelfLink                string                 `json:"selfLink"`                // The URI for this object.
	Name                    string                 `json:"name"`                    // The name of the object within the bucket.
	Bucket                  string                 `json:"bucket"`                  // The name of the bucket containing the object.
	Generation              string                 `json:"generation"`              // The generation number of the object's content.
	MetaGeneration          string                 `json:"metageneration"`          // The generation number of the object's metadata.
	ContentType             string                 `json:"contentType"`             // The MIME type of the object's content.
	TimeCreated             string                 `json:"timeCreated"`             // The creation time of the object.
	Updated                 string                 `json:"updated"`                 // The last modification time of the object.
	StorageClass            string                 `json:"storageClass"`            // The storage class of the object.
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"` // The time the storage class was last updated.
	Size                    string                 `json:"size"`                    // The size of the object in bytes.
	MD5Hash                 string                 `json:"md5Hash"`                 // The MD5 hash of the object's content.
	MediaLink               string                 `json:"mediaLink"`               // A link to download the object's content.
	MetaData                map[string]interface{} `json:"metadata"`                // User-provided metadata, if any.
	Crc32c                  string                 `json:"crc32c"`                  // The CRC32C checksum of the object's content.
	ETag                    string                 `json:"etag"`                    // The HTTP ETag of the object.
}

// GCSObject is a reference to one stored object.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "video/mp4").
}

// URI is the gs:// form used by Vertex AI file references.
func (o *GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// IsVideo reports whether the object declares a video content type.
func (o *GCSObject) IsVideo() bool {
	return strings.HasPrefix(o.MIMEType, "video/")
}

// PublicURL renders the https URL of an object, escaping each path segment
// so chamber names with spaces survive.
func PublicURL(prefix string, bucket string, name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(prefix, "/"), bucket, strings.Join(segments, "/"))
}

// ParseObjectURL is the inverse of PublicURL. It also accepts gs:// URIs.
func ParseObjectURL(prefix string, raw string) (*GCSObject, error) {
	var rest string
	switch {
	case strings.HasPrefix(raw, "gs://"):
		rest = strings.TrimPrefix(raw, "gs://")
	case prefix != "" && strings.HasPrefix(raw, strings.TrimRight(prefix, "/")+"/"):
		rest = strings.TrimPrefix(raw, strings.TrimRight(prefix, "/")+"/")
	default:
		return nil, fmt.Errorf("not a storage URL: %s", raw)
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("unable to determine bucket and object from %s", raw)
	}
	name, err := url.PathUnescape(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid object path in %s: %w", raw, err)
	}
	return &GCSObject{Bucket: parts[0], Name: name}, nil
}

// ObjectOpener opens a writer for a new object. Closing the writer commits
// the object; cancelling ctx before Close discards it.
type ObjectOpener func(ctx context.Context, obj *GCSObject, metadata map[string]string) io.WriteCloser

// StorageOpener opens storage.Writers on client.
func StorageOpener(client *storage.Client) ObjectOpener {
	return func(ctx context.Context, obj *GCSObject, metadata map[string]string) io.WriteCloser {
		writer := client.Bucket(obj.Bucket).Object(obj.Name).NewWriter(ctx)
		writer.ContentType = obj.MIMEType
		writer.Metadata = metadata
		return writer
	}
}

// WriteObject streams src into obj and returns the number of bytes written.
// When src fails the upload is abandoned and no object is committed.
func WriteObject(ctx context.Context, open ObjectOpener, obj *GCSObject, metadata map[string]string, src io.Reader) (int64, error) {
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := open(writeCtx, obj, metadata)
	written, err := io.Copy(writer, src)
	if err != nil {
		cancel()
		_ = writer.Close()
		return written, fmt.Errorf("failed to copy to %s after %d bytes: %w", obj.URI(), written, err)
	}
	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("failed to finalize %s: %w", obj.URI(), err)
	}
	return written, nil
}
