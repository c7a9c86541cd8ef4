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

package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogHandlerUsesCloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo))

	logger.Warn("quota low", "model", "gemini")

	entry := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "quota low", entry["message"])
	assert.Equal(t, "gemini", entry["model"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogHandlerAddsTraceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo)).With("component", "linker")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	logger.InfoContext(ctx, "linked")

	entry := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", entry["logging.googleapis.com/trace"])
	assert.Equal(t, "0102030405060708", entry["logging.googleapis.com/spanId"])
	assert.Equal(t, true, entry["logging.googleapis.com/trace_sampled"])
	assert.Equal(t, "linker", entry["component"])
}

func TestLogHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(telemetry.NewLogHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	level, err := telemetry.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = telemetry.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = telemetry.ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupOpenTelemetryDisabled(t *testing.T) {
	config := cloud.NewConfig()
	config.Telemetry.Exporter = telemetry.ExporterNone

	shutdown, err := telemetry.SetupOpenTelemetry(context.Background(), config)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	config.Telemetry.Exporter = "zipkin"
	_, err = telemetry.SetupOpenTelemetry(context.Background(), config)
	assert.Error(t, err)
}

func TestBridgedLoggerWritesToDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(telemetry.NewLogHandler(&buf, slog.LevelInfo)))

	logger := telemetry.NewBridgedLogger("link-batch").With("run_id", "r1")
	logger.Info("link run finished", "updated", 3)

	entry := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "link run finished", entry["message"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, float64(3), entry["updated"])
}
