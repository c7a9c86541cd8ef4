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
// across the portal. This file defines ServiceClients, the container that
// owns every client so the binaries can build them once and hand them to the
// services and workflows that need them.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients holds the initialised Google Cloud clients.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Client for Google Cloud Storage (GCS).
	PubsubClient    *pubsub.Client                          // Client for Google Cloud Pub/Sub.
	GenAIClient     *genai.Client                           // Client for Gemini on Vertex AI.
	BiqQueryClient  *bigquery.Client                        // Client for Google Cloud BigQuery.
	FirestoreClient *firestore.Client                       // Client for the media metadata store.
	IAMClient       *credentials.IamCredentialsClient       // Client for IAM to sign GCS URLs.
	PubSubListeners map[string]*PubSubListener              // Active listeners keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Rate limited generative models keyed by the logical name.
}

// Close releases every client. Errors are joined and returned.
func (c *ServiceClients) Close() error {
	var err error
	if c.StorageClient != nil {
		err = errors.Join(err, c.StorageClient.Close())
	}
	if c.PubsubClient != nil {
		err = errors.Join(err, c.PubsubClient.Close())
	}
	if c.BiqQueryClient != nil {
		err = errors.Join(err, c.BiqQueryClient.Close())
	}
	if c.FirestoreClient != nil {
		err = errors.Join(err, c.FirestoreClient.Close())
	}
	if c.IAMClient != nil {
		err = errors.Join(err, c.IAMClient.Close())
	}
	return err
}

// NewCloudServiceClients creates every client from the configuration. The
// listeners are created without a command; the server attaches workflows
// with SetCommand.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	projectID := config.Application.GoogleProjectId
	slog.Info("initialising cloud clients", "project", projectID, "location", config.Application.GoogleLocation)

	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	pc, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	bc, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}

	fc, err := firestore.NewClientWithDatabase(ctx, projectID, config.Firestore.Database)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("iam credentials client: %w", err)
	}

	subscriptions := make(map[string]*PubSubListener)
	for subKey, values := range config.TopicSubscriptions {
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit)
		slog.Debug("configured agent model", "key", amKey, "model", values.Model)
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		GenAIClient:     gc,
		BiqQueryClient:  bc,
		FirestoreClient: fc,
		IAMClient:       iamClient,
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}
	return cloud, nil
}
