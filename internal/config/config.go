// Package config reads the process environment and builds the collaborators
// shared by the server and the CLI.
package config

import (
	"net/http"
	"time"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/ai"
	oai "github.com/graphmind/graphmind/pkg/ai/ollama"
	gai "github.com/graphmind/graphmind/pkg/ai/openai"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/logger"
	"github.com/graphmind/graphmind/pkg/logger/console"
)

type Config struct {
	Port      string
	Debug     bool
	LogFormat string

	AIAdapter       string
	AIChatURL       string
	AIChatKey       string
	ExtractionModel string
	AnswerModel     string
	ParallelReq     int
	MaxRetries      int
	RetryBackoff    time.Duration

	ChunkMaxTokens        int
	ExtractionServiceURL  string
	ExtractionHTTPTimeout time.Duration
}

// Load reads the configuration from the environment. Call util.LoadEnv
// first to pick up a .env file.
func Load() Config {
	return Config{
		Port:      util.GetEnvString("PORT", "8080"),
		Debug:     util.GetEnvBool("DEBUG", false),
		LogFormat: util.GetEnvString("LOG_FORMAT", "text"),

		AIAdapter:       util.GetEnvString("AI_ADAPTER", "openai"),
		AIChatURL:       util.GetEnv("AI_CHAT_URL"),
		AIChatKey:       util.GetEnv("AI_CHAT_KEY"),
		ExtractionModel: util.GetEnvString("AI_CHAT_EXTRACT_MODEL", "gpt-4o-mini"),
		AnswerModel:     util.GetEnvString("AI_CHAT_ANSWER_MODEL", "gpt-4o-mini"),
		ParallelReq:     util.GetEnvInt("AI_PARALLEL_REQ", 4),
		MaxRetries:      util.GetEnvInt("AI_MAX_RETRIES", 3),
		RetryBackoff:    time.Duration(util.GetEnvInt("AI_RETRY_BACKOFF_MS", 500)) * time.Millisecond,

		ChunkMaxTokens:        util.GetEnvInt("CHUNK_MAX_TOKENS", graph.DefaultMaxTokens),
		ExtractionServiceURL:  util.GetEnv("EXTRACTION_SERVICE_URL"),
		ExtractionHTTPTimeout: 2 * time.Minute,
	}
}

// InitLogger installs the console logger.
func (c Config) InitLogger() {
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: c.Debug,
		JSON:  c.LogFormat == "json",
	}))
}

// NewAIClient creates the model client for AI_ADAPTER. The result is nil
// when the OpenAI adapter has no key; callers then fall back to mock
// extraction and refuse questions.
func (c Config) NewAIClient() (ai.GraphAIClient, error) {
	switch c.AIAdapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ExtractionModel: c.ExtractionModel,
			AnswerModel:     c.AnswerModel,

			BaseURL: c.AIChatURL,
			ApiKey:  c.AIChatKey,

			MaxConcurrentRequests: int64(c.ParallelReq),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ExtractionModel: c.ExtractionModel,
			AnswerModel:     c.AnswerModel,

			ChatURL: c.AIChatURL,
			ChatKey: c.AIChatKey,
		})
		// A typed nil must not leak into the interface.
		if client == nil {
			return nil, nil
		}
		return client, nil
	}
}

// NewGraphClient creates the pipeline client.
func (c Config) NewGraphClient(m *metrics.Collector) *graph.GraphClient {
	return graph.NewGraphClient(graph.NewGraphClientParams{
		MaxTokens:          c.ChunkMaxTokens,
		ParallelAiRequests: c.ParallelReq,
		MaxRetries:         c.MaxRetries,
		RetryBackoff:       c.RetryBackoff,
		Metrics:            m,
	})
}

// NewExtractor returns the remote extraction service when
// EXTRACTION_SERVICE_URL is set and the model extractor otherwise.
func (c Config) NewExtractor(aiClient ai.GraphAIClient) graph.Extractor {
	if c.ExtractionServiceURL != "" {
		logger.Info("[Config] Using remote extraction service", "url", c.ExtractionServiceURL)
		return graph.NewHTTPExtractor(c.ExtractionServiceURL, &http.Client{Timeout: c.ExtractionHTTPTimeout})
	}
	if aiClient == nil {
		logger.Warn("[Config] No AI credentials configured, extraction returns mock data")
	}
	return graph.NewAIExtractor(aiClient)
}
