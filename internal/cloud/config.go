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

// Package cloud provides the configuration and the Google Cloud clients used
// across the portal. This file defines the configuration structs that are
// decoded from the TOML files under configs/.
//
// Layout:
// A base file (.env.toml) carries defaults and a runtime specific file
// (.env.<runtime>.toml) overrides them. Maps such as TopicSubscriptions and
// AgentModels are keyed by a logical name the code refers to, so a bucket
// or model can be swapped in config without touching the code.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// DefaultSafetySettings disables content blocking. Floor debates routinely
// discuss crime, violence and health topics that would otherwise be cut out
// of a transcript.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource names the dataset that receives link audit rows.
type BigQueryDataSource struct {
	DatasetName     string `toml:"dataset"`           // The name of the BigQuery dataset.
	LinkReportTable string `toml:"link_report_table"` // One row per resolved cross reference.
}

// Firestore selects the database and the collection names per media kind.
type Firestore struct {
	Database              string `toml:"database"`               // "(default)" unless a named database is used.
	VideosCollection      string `toml:"videos_collection"`      // Collection for video records.
	AudioCollection       string `toml:"audio_collection"`       // Collection for audio records.
	TranscriptsCollection string `toml:"transcripts_collection"` // Collection for transcript records.
	OtherCollection       string `toml:"other_collection"`       // Collection for anything else.
}

// PromptTemplates are Go text/template sources for the generative model.
type PromptTemplates struct {
	TranscriptPrompt string `toml:"transcript"` // Transcription instructions for a session recording.
}

// VertexAiLLMModel configures one generative model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed against the model.
}

// TopicSubscription binds a logical listener name to a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Storage names the buckets that hold each kind of artifact.
type Storage struct {
	VideoBucket      string `toml:"video_bucket"`      // Session videos; uploads here trigger ingestion.
	AudioBucket      string `toml:"audio_bucket"`      // Extracted audio tracks.
	TranscriptBucket string `toml:"transcript_bucket"` // Plain text transcripts.
	PublicURLPrefix  string `toml:"public_url_prefix"` // e.g. "https://storage.googleapis.com"
}

// Category is a recording source on the legislature site. URLTemplate is a
// text/template that renders the download URL for one session date.
type Category struct {
	Name        string `toml:"name"`         // Display name, e.g. "House Chambers".
	Definition  string `toml:"definition"`   // A short description of the source.
	URLTemplate string `toml:"url_template"` // e.g. "{{.Base}}/{{.Year}}/House/Chambers/HouseChambers{{.MM}}-{{.DD}}-{{.Year}}.mp4"
}

// Resolver tunes relationship matching and the link job.
type Resolver struct {
	FuzzyThreshold      float64  `toml:"fuzzy_threshold"`       // Share of title tokens that must match.
	MinTokenLength      int      `toml:"min_token_length"`      // Shorter title tokens are ignored.
	Stopwords           []string `toml:"stopwords"`             // Title tokens that never count.
	Bidirectional       bool     `toml:"bidirectional"`         // Also write the back-pointer on the target.
	LinkWorkers         int      `toml:"link_workers"`          // Size of the link worker pool.
	LinkIntervalMinutes int      `toml:"link_interval_minutes"` // Period of the background link run; 0 disables it.
	CacheTTLSeconds     int      `toml:"cache_ttl_seconds"`     // Lifetime of cached candidate pools.
}

// CacheTTL returns the candidate pool cache lifetime.
func (r Resolver) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

// Downloader configures fetching recordings from the legislature site and
// converting them.
type Downloader struct {
	BaseURL        string `toml:"base_url"`        // Root of the recordings site.
	UserAgent      string `toml:"user_agent"`      // Sent with every request.
	TimeoutSeconds int    `toml:"timeout_seconds"` // Whole request timeout; recordings are large.
	FFmpegPath     string `toml:"ffmpeg_path"`     // Path to the ffmpeg binary.
}

// Telemetry selects where traces and metrics go.
type Telemetry struct {
	Exporter string `toml:"exporter"` // "gcp" or "none"
	LogFile  string `toml:"log_file"` // Log file tee'd with stdout; empty for stdout only.
	LogLevel string `toml:"log_level"`
}

// Config is the root of the configuration tree.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		Version                   string `toml:"version"`                      // Reported by the health endpoint.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // The size of the worker pool for parallel processing tasks.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
		ListenAddress             string `toml:"listen_address"`               // API server address, e.g. ":8080".
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`               // Storage configuration.
	Firestore          Firestore                    `toml:"firestore"`             // Metadata store configuration.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"` // BigQuery data source configuration.
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`      // Prompt templates configuration.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`   // Pub/Sub subscriptions keyed by a logical name (e.g., "VideoTopic").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`          // Generative models keyed by a logical name (e.g., "transcriber").
	Categories         map[string]Category          `toml:"categories"`            // Recording sources keyed by a short name (e.g., "house").
	Resolver           Resolver                     `toml:"resolver"`              // Relationship matching.
	Downloader         Downloader                   `toml:"downloader"`            // Recording downloads.
	Telemetry          Telemetry                    `toml:"telemetry"`             // Observability.
}

// NewConfig returns a Config with initialised maps and the defaults that
// apply when a key is absent from every file.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		Categories:         make(map[string]Category),
	}
	c.Application.ListenAddress = ":8080"
	c.Application.ThreadPoolSize = 4
	c.Storage.PublicURLPrefix = "https://storage.googleapis.com"
	c.Firestore = Firestore{
		Database:              "(default)",
		VideosCollection:      "videos",
		AudioCollection:       "audio",
		TranscriptsCollection: "transcripts",
		OtherCollection:       "other",
	}
	c.Resolver = Resolver{
		FuzzyThreshold:  0.5,
		MinTokenLength:  4,
		Stopwords:       []string{"the", "and", "with"},
		Bidirectional:   true,
		LinkWorkers:     8,
		CacheTTLSeconds: 300,
	}
	c.Downloader = Downloader{
		BaseURL:        "https://insession.idaho.gov/IIS",
		UserAgent:      "legislative-media-portal/1.0",
		TimeoutSeconds: 1800,
		FFmpegPath:     "ffmpeg",
	}
	c.Telemetry = Telemetry{Exporter: "gcp", LogFile: "app.log", LogLevel: "info"}
	return c
}
