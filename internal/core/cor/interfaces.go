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

// Package cor (Chain of Responsibility) provides the building blocks the
// ingestion, download and link workflows are assembled from. This file
// defines the interfaces: a Command is one step, a Chain is an ordered list
// of steps that is itself a Command, and a Context is the state shared by all
// steps of one run.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the next.
const (
	// CtxIn holds the primary input of the command about to run.
	CtxIn = "__IN__"
	// CtxOut is where a command leaves its primary output. The chain moves
	// it to CtxIn before the next command runs.
	CtxOut = "__OUT__"
)

// Context is the state of one workflow run. Implementations must be safe for
// use by commands that fan work out to goroutines.
type Context interface {
	// SetContext replaces the Go context, which carries cancellation and
	// the current span.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error against the name of the command that raised it.
	AddError(key string, err error)

	// GetErrors returns a copy of the recorded errors.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a local file to delete on Close.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary files.
	GetTempFiles() []string

	// Close deletes the registered temporary files.
	Close()
}

// Executable is anything that runs against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a single step of a workflow.
type Command interface {
	Executable

	// GetName is used for span names, metric names and error keys.
	GetName() string

	// GetInputParam is the key of the command's primary input.
	GetInputParam() string

	// GetOutputParam is the key the command writes its primary output to.
	GetOutputParam() string

	// IsExecutable is checked by the chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other Commands, executed in order.
type Chain interface {
	Command

	// ContinueOnFailure makes the chain run the remaining commands after
	// one of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command.
	AddCommand(command Command) Chain
}
