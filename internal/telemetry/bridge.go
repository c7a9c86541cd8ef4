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

package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// teeHandler writes every record to the default slog handler and to the
// OpenTelemetry log bridge. A nil primary is resolved on each call, so a
// logger created at package init follows a later SetupLogging.
type teeHandler struct {
	primary slog.Handler
	bridge  slog.Handler
}

// NewBridgedLogger returns a logger for a package whose entries should also
// reach the global OpenTelemetry LoggerProvider.
func NewBridgedLogger(name string) *slog.Logger {
	return slog.New(&teeHandler{bridge: otelslog.NewHandler(name)})
}

func (h *teeHandler) current() slog.Handler {
	if h.primary != nil {
		return h.primary
	}
	return slog.Default().Handler()
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current().Enabled(ctx, level) || h.bridge.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	for _, handler := range []slog.Handler{h.current(), h.bridge} {
		if handler.Enabled(ctx, record.Level) {
			err = errors.Join(err, handler.Handle(ctx, record.Clone()))
		}
	}
	return err
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{primary: h.current().WithAttrs(attrs), bridge: h.bridge.WithAttrs(attrs)}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{primary: h.current().WithGroup(name), bridge: h.bridge.WithGroup(name)}
}
