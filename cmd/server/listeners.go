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
	"fmt"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/app"
	"github.com/jaycherian/legislative-media-portal/internal/core/workflow"
)

// VideoTopic is the listener key of the video bucket notifications.
const VideoTopic = "VideoTopic"

// SetupListeners attaches the ingestion workflow to the video listener and
// starts receiving.
func SetupListeners(ctx context.Context, state *app.StateManager) error {
	listener, ok := state.Cloud.PubSubListeners[VideoTopic]
	if !ok {
		return fmt.Errorf("no subscription configured for %s", VideoTopic)
	}

	ingestion, err := workflow.NewMediaIngestionWorkflow(state.Config, state.Cloud, state.Store, state.Links, state.Reporter)
	if err != nil {
		return err
	}
	listener.SetCommand(ingestion)
	listener.Listen(ctx)
	return nil
}

// StartLinkTimer schedules the relationship backfill.
func StartLinkTimer(ctx context.Context, state *app.StateManager) {
	interval := time.Duration(state.Config.Resolver.LinkIntervalMinutes) * time.Minute
	workflow.NewMediaLinkWorkflow(state.Links, interval).StartTimer(ctx)
}
