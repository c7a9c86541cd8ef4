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
// of the metadata store. This file generates V4 signed URLs for streaming
// session videos.
//
// Logic Flow:
//  1. The public object URL stored on the record is parsed back into a
//     bucket and object name.
//  2. The URL is signed as the configured service account. The signature is
//     produced by the IAM Credentials SignBlob API, so no key file is needed
//     on the server.
package services

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
)

// DefaultSignedURLExpiry is the lifetime of a stream URL.
const DefaultSignedURLExpiry = 15 * time.Minute

// URLSigner produces time limited GET URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, objectURL string, expires time.Duration) (string, error)
}

// StorageURLSigner signs through the IAM Credentials API.
type StorageURLSigner struct {
	StorageClient   *storage.Client                   // Client for Google Cloud Storage.
	IAMClient       *credentials.IamCredentialsClient // Client used to sign the URL.
	SignerEmail     string                            // Service account that owns the signature.
	PublicURLPrefix string                            // Prefix of the URLs stored on records.
}

func (s *StorageURLSigner) SignedURL(ctx context.Context, objectURL string, expires time.Duration) (string, error) {
	obj, err := cloud.ParseObjectURL(s.PublicURLPrefix, objectURL)
	if err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", obj.Bucket, obj.Name, err)
	}
	return u, nil
}
