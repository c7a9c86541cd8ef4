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

// Package commands holds the individual steps of the ingestion and download
// workflows. This file defines the ffmpeg step that strips the audio track
// out of a session video.
//
// Logic Flow:
//  1. The local video file is sniffed with filetype; anything that is not a
//     video container is rejected before ffmpeg is started.
//  2. ffmpeg drops the video stream (-vn) and re-encodes the audio with the
//     configured codec, sample rate and channel count into a temporary file.
//  3. The temporary file is registered for cleanup and becomes the output.
package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"github.com/jaycherian/legislative-media-portal/internal/core/cor"
	"github.com/jaycherian/legislative-media-portal/internal/core/model"
)

const (
	DefaultFFmpegCommand = "ffmpeg"
	TempFilePrefix       = "ffmpeg-output-"
	maxStderrInError     = 2048
)

// AudioExtractionArgs builds the ffmpeg argument list that writes the audio
// track of input to output.
func AudioExtractionArgs(input string, output string, format *model.AudioFormat) []string {
	return []string{
		"-hide_banner", "-y",
		"-i", input,
		"-vn",
		"-acodec", format.Codec,
		"-ar", strconv.Itoa(format.SampleRate),
		"-ac", strconv.Itoa(format.Channels),
		output,
	}
}

// FFMpegCommand extracts audio from a local video file.
type FFMpegCommand struct {
	cor.BaseCommand
	commandPath string             // The path to the FFmpeg executable (e.g., "/usr/bin/ffmpeg").
	format      *model.AudioFormat // Target audio encoding.
}

func NewFFMpegCommand(name string, commandPath string, format *model.AudioFormat) *FFMpegCommand {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = DefaultFFmpegCommand
	}
	if format == nil {
		format = model.DefaultAudioFormat()
	}
	return &FFMpegCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		commandPath: commandPath,
		format:      format,
	}
}

// CheckVideoFile returns an error unless the file header identifies a video.
func CheckVideoFile(fileName string) error {
	kind, err := filetype.MatchFile(fileName)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if kind == filetype.Unknown || kind.MIME.Type != "video" {
		return fmt.Errorf("%s is not a video file (detected %q)", fileName, kind.MIME.Value)
	}
	return nil
}

func (c *FFMpegCommand) Execute(context cor.Context) {
	inputFileName := context.Get(c.GetInputParam()).(string)

	if err := CheckVideoFile(inputFileName); err != nil {
		c.Fail(context, err)
		return
	}

	tempFile, err := os.CreateTemp("", TempFilePrefix+"*."+c.format.Extension)
	if err != nil {
		c.Fail(context, fmt.Errorf("could not create temp file: %w", err))
		return
	}
	outputFileName := tempFile.Name()
	_ = tempFile.Close()
	context.AddTempFile(outputFileName)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(context.GetContext(), c.commandPath, AudioExtractionArgs(inputFileName, outputFileName, c.format)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		out := stderr.String()
		if len(out) > maxStderrInError {
			out = out[len(out)-maxStderrInError:]
		}
		c.Fail(context, fmt.Errorf("error running ffmpeg: %w: %s", err, out))
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "extracted audio", "input", inputFileName, "output", outputFileName, "codec", c.format.Codec)
	context.Add(c.GetOutputParam(), outputFileName)
}
