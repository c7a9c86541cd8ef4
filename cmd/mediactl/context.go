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

package main

import (
	"context"
	"sync"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/app"
	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/resolver"
	"github.com/jaycherian/legislative-media-portal/internal/core/workflow"
)

type linker interface {
	Run(ctx context.Context, dryRun bool) (*model.LinkSummary, error)
	Resolve(ctx context.Context, source *model.MediaRecord, target model.MediaKind) (resolver.Resolution, error)
}

type recordGetter interface {
	Get(ctx context.Context, kind model.MediaKind, id string) (*model.MediaRecord, error)
}

type statsReader interface {
	Stats(ctx context.Context) (*model.MediaStats, error)
}

type strategyReader interface {
	StrategyCounts(ctx context.Context, runID string) ([]*model.StrategyCount, error)
}

type downloader interface {
	cor.Command
	URLFor(category string, date time.Time) (string, error)
}

// backends are the services the commands talk to.
type backends struct {
	links    linker
	records  recordGetter
	stats    statsReader
	reports  strategyReader
	download downloader
	close    func() error
}

type backendFactory func(ctx context.Context, config *cloud.Config) (*backends, error)

func newCloudBackends(ctx context.Context, config *cloud.Config) (*backends, error) {
	state, err := app.NewState(ctx, config)
	if err != nil {
		return nil, err
	}
	return &backends{
		links:    state.Links,
		records:  state.Store,
		stats:    state.Media,
		reports:  state.Reporter,
		download: workflow.NewMediaDownloadWorkflow(config, state.Cloud),
		close:    state.Close,
	}, nil
}

// commandContext loads the configuration and the backends once per process.
type commandContext struct {
	factory backendFactory

	configOnce sync.Once
	config     *cloud.Config
	configErr  error

	backendsOnce sync.Once
	backends     *backends
	backendsErr  error
}

func newCommandContext(factory backendFactory) *commandContext {
	return &commandContext{factory: factory}
}

func (c *commandContext) ensureConfig() (*cloud.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = app.GetConfig("local")
		if c.configErr == nil {
			c.config.Telemetry.Exporter = "none"
		}
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureBackends(ctx context.Context) (*backends, error) {
	config, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.backendsOnce.Do(func() {
		c.backends, c.backendsErr = c.factory(ctx, config)
	})
	return c.backends, c.backendsErr
}

func (c *commandContext) close() error {
	if c.backends == nil || c.backends.close == nil {
		return nil
	}
	return c.backends.close()
}
