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

package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaycherian/legislative-media-portal/internal/cloud"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
	"github.com/jaycherian/legislative-media-portal/internal/core/workflow"
	test "github.com/jaycherian/legislative-media-portal/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls  atomic.Int32
	dryRun atomic.Bool
	err    error
}

func (f *fakeRunner) Run(_ context.Context, dryRun bool) (*model.LinkSummary, error) {
	f.calls.Add(1)
	f.dryRun.Store(dryRun)
	return &model.LinkSummary{RunID: "run-1", Processed: 3, Updated: 2, DryRun: dryRun}, f.err
}

func ingestionClients() *cloud.ServiceClients {
	return &cloud.ServiceClients{
		AgentModels: map[string]*cloud.QuotaAwareGenerativeAIModel{
			workflow.TranscriberModelName: cloud.NewQuotaAwareModel(nil, "gemini-test", nil, 1),
		},
	}
}

func TestIngestionWorkflowAssemblesChain(t *testing.T) {
	config := test.GetConfig(t)

	wf, err := workflow.NewMediaIngestionWorkflow(config, ingestionClients(), nil, nil, nil)
	require.NoError(t, err)

	chain, ok := wf.Chain().(*cor.BaseChain)
	require.True(t, ok)

	names := make([]string, 0)
	for _, c := range chain.Commands() {
		names = append(names, c.GetName())
	}
	assert.Equal(t, []string{
		"media-trigger-to-gcs-object",
		"extract-session-metadata",
		"gcs-to-temp-file",
		"extract-audio",
		"upload-audio",
		"transcribe-audio",
		"upload-transcript",
		"persist-session-records",
		"link-session-records",
		"write-link-report",
	}, names)
}

func TestIngestionWorkflowRequiresTranscriber(t *testing.T) {
	config := test.GetConfig(t)

	_, err := workflow.NewMediaIngestionWorkflow(config, &cloud.ServiceClients{}, nil, nil, nil)
	assert.ErrorContains(t, err, workflow.TranscriberModelName)
}

func TestIngestionWorkflowIgnoresNonVideo(t *testing.T) {
	config := test.GetConfig(t)
	wf, err := workflow.NewMediaIngestionWorkflow(config, ingestionClients(), nil, nil, nil)
	require.NoError(t, err)

	chCtx := cor.NewContextWith(context.Background(), test.GetTestTextMessageText())
	defer chCtx.Close()
	wf.Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}

func TestDownloadWorkflowURLFor(t *testing.T) {
	config := test.GetConfig(t)
	wf := workflow.NewMediaDownloadWorkflow(config, &cloud.ServiceClients{})

	got, err := wf.URLFor("House", time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "https://insession.idaho.gov/IIS/2025/House/Chambers/HouseChambers01-24-2025.mp4", got)

	_, err = wf.URLFor("committee", time.Now())
	assert.Error(t, err)
}

func TestLinkWorkflowExecute(t *testing.T) {
	runner := &fakeRunner{}
	wf := workflow.NewMediaLinkWorkflow(runner, 0)

	chCtx := cor.NewContextWith(context.Background(), nil)
	chCtx.Add(workflow.DryRunParam, true)
	require.True(t, wf.IsExecutable(chCtx))
	wf.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	assert.True(t, runner.dryRun.Load())
	summary, ok := chCtx.Get(workflow.LinkSummaryParam).(*model.LinkSummary)
	require.True(t, ok)
	assert.Equal(t, int64(2), summary.Updated)
	assert.True(t, summary.DryRun)
}

func TestLinkWorkflowRecordsFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("store unavailable")}
	wf := workflow.NewMediaLinkWorkflow(runner, 0)

	chCtx := cor.NewContextWith(context.Background(), nil)
	wf.Execute(chCtx)

	assert.True(t, chCtx.HasErrors())
	assert.ErrorContains(t, cor.Err(chCtx), "store unavailable")
	assert.NotNil(t, chCtx.Get(workflow.LinkSummaryParam))
}

func TestLinkWorkflowTimer(t *testing.T) {
	runner := &fakeRunner{}
	wf := workflow.NewMediaLinkWorkflow(runner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wf.StartTimer(ctx)

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, runner.dryRun.Load())
}

func TestLinkWorkflowTimerDisabled(t *testing.T) {
	runner := &fakeRunner{}
	wf := workflow.NewMediaLinkWorkflow(runner, 0)

	wf.StartTimer(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, runner.calls.Load())
}
