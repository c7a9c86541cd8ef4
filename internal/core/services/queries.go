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

package services

const (
	// QryStrategyCounts counts the persisted links per resolver strategy.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the link report table.
	QryStrategyCounts = "SELECT strategy, COUNT(*) AS links FROM `%s` WHERE updated = TRUE GROUP BY strategy ORDER BY links DESC"

	// QryStrategyCountsForRun is QryStrategyCounts narrowed to one run,
	// dry runs included. The run id is bound as @run_id.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the link report table.
	QryStrategyCountsForRun = "SELECT strategy, COUNT(*) AS links FROM `%s` WHERE run_id = @run_id GROUP BY strategy ORDER BY links DESC"
)
