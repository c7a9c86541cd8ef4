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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides hardcoded example values used for few-shot
// prompting. Showing the model a short excerpt in the exact layout we expect
// keeps speaker labels and paragraphing consistent across sessions.
package model

// GetExampleTranscript returns a short excerpt of a floor session transcript
// in the format the transcription prompt asks for.
func GetExampleTranscript() string {
	return `SPEAKER (Presiding Officer):
The House will come to order. The clerk will call the roll.

[Roll call taken. A quorum is present.]

SPEAKER (Presiding Officer):
We are on the third reading calendar. The clerk will read House Bill 123.

CLERK:
House Bill 123, relating to public school funding, amending Section 33-1002, Idaho Code.

REPRESENTATIVE SMITH:
Thank you, Mr. Speaker. This bill adjusts the distribution formula so that districts with growing enrollment receive support in the year the growth occurs.`
}

// GetExampleSessionMetadata returns the metadata extracted from a typical
// chamber recording name, "HouseChambers01-24-2025_Day19.mp4".
func GetExampleSessionMetadata() *SessionMetadata {
	return &SessionMetadata{
		Year:       "2025",
		Chamber:    ChamberHouse,
		Date:       "2025-01-24",
		SessionDay: 19,
		FileName:   "HouseChambers01-24-2025_Day19.mp4",
	}
}
