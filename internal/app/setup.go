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

// Package app holds the state shared by the server and the operator CLI:
// configuration, cloud clients and the services built on top of them.
//
// Functions:
//   - SetupOS: points the config loader at the configs directory and a
//     runtime unless the environment already does.
//   - GetConfig: loads the TOML configuration.
//   - NewState: creates the cloud clients and wires the services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/services"
)

// DefaultConfigDir is used when GCP_CONFIG_PREFIX is not set.
const DefaultConfigDir = "configs"

// StateManager holds the shared dependencies of a binary.
type StateManager struct {
	Config   *cloud.Config
	Cloud    *cloud.ServiceClients
	Store    services.MediaStore
	Reporter *services.BigQueryLinkReporter
	Media    *services.MediaService
	Links    *services.LinkService
	Uploads  *services.BucketUploader
}

// SetupOS sets GCP_CONFIG_PREFIX and GCP_RUNTIME when they are unset.
func SetupOS(runtime string) error {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, DefaultConfigDir); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		return os.Setenv(cloud.EnvConfigRuntime, runtime)
	}
	return nil
}

// GetConfig runs SetupOS and loads the configuration.
func GetConfig(runtime string) (*cloud.Config, error) {
	if err := SetupOS(runtime); err != nil {
		return nil, fmt.Errorf("failed to setup os: %w", err)
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// NewServices wires the services over an existing set of clients.
func NewServices(config *cloud.Config, clients *cloud.ServiceClients) *StateManager {
	store := services.NewFirestoreStore(clients.FirestoreClient, config.Firestore)
	reporter := &services.BigQueryLinkReporter{
		Client:      clients.BiqQueryClient,
		DatasetName: config.BigQueryDataSource.DatasetName,
		TableName:   config.BigQueryDataSource.LinkReportTable,
	}
	signer := &services.StorageURLSigner{
		StorageClient:   clients.StorageClient,
		IAMClient:       clients.IAMClient,
		SignerEmail:     config.Application.SignerServiceAccountEmail,
		PublicURLPrefix: config.Storage.PublicURLPrefix,
	}

	media := services.NewMediaService(store, services.ResolverOptions(config.Resolver), config.Resolver.CacheTTL(), signer)
	writes := media.Pools.Watch(store)

	return &StateManager{
		Config:   config,
		Cloud:    clients,
		Store:    writes,
		Reporter: reporter,
		Media:    media,
		Links:    services.NewLinkService(writes, config.Resolver, reporter),
		Uploads:  services.NewBucketUploader(clients.StorageClient, config.Storage.VideoBucket),
	}
}

// NewState creates the cloud clients and the services. The link report
// table is created when missing; failure to do so is logged, not fatal.
func NewState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	state := NewServices(config, clients)
	if err := state.Reporter.EnsureTable(ctx); err != nil {
		slog.Warn("link report table unavailable", "table", config.BigQueryDataSource.LinkReportTable, "error", err)
	}
	return state, nil
}

// Close releases the cloud clients.
func (s *StateManager) Close() error {
	if s == nil || s.Cloud == nil {
		return nil
	}
	if err := s.Cloud.Close(); err != nil {
		return errors.Join(errors.New("failed to close cloud clients"), err)
	}
	return nil
}
