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
// workflows are assembled from. This file defines BaseChain, the default
// Chain.
//
// Logic Flow:
//  1. A span is opened for the chain and a child span for every command.
//  2. Before each command the chain stops if an earlier command recorded an
//     error, unless ContinueOnFailure is set. A cancelled Go context also
//     stops the chain.
//  3. A command whose IsExecutable returns false is skipped. Skipping is not
//     an error: commands use it to opt out, e.g. for objects that are not
//     videos.
//  4. After each command the value in CtxOut is moved to CtxIn, so the
//     output of one step is the input of the next.
package cor

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands in order.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only needs a Go context; each command checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			slog.DebugContext(outerCtx, "previous error on chain, stopping", "chain", c.GetName(), "next", command.GetName())
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), fmt.Errorf("chain cancelled before %s: %w", command.GetName(), err))
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		chCtx.SetContext(commandContext)

		if !command.IsExecutable(chCtx) {
			commandSpan.SetAttributes(attribute.Bool("skipped", true))
			commandSpan.SetStatus(codes.Ok, "command not executable; skipped")
			commandSpan.End()
			chCtx.SetContext(outerCtx)
			slog.DebugContext(outerCtx, "skipping command", "chain", c.GetName(), "command", command.GetName())
			continue
		}

		errorsBefore := len(chCtx.GetErrors())
		started := time.Now()
		command.Execute(chCtx)
		chCtx.SetContext(outerCtx)

		if len(chCtx.GetErrors()) > errorsBefore {
			commandSpan.SetStatus(codes.Error, "error during command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()
		slog.DebugContext(outerCtx, "command finished", "chain", c.GetName(), "command", command.GetName(), "elapsed", time.Since(started))

		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
