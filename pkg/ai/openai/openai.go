package openai

import (
	"github.com/graphmind/graphmind/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient talks to any OpenAI compatible chat endpoint. It uses
// one model for entity extraction and one for answering questions.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	extractionModel string
	answerModel     string

	chatURL string

	metrics ai.MetricsAccumulator

	ChatClient *openai.Client
}

// NewGraphOpenAIClientParams configures NewGraphOpenAIClient.
//
// ChatURL may be empty to use the default OpenAI endpoint. ChatKey is
// required.
type NewGraphOpenAIClientParams struct {
	ExtractionModel string
	AnswerModel     string

	ChatURL string
	ChatKey string
}

// NewGraphOpenAIClient returns nil when no key is configured, so callers
// can treat a missing credential as "no model available".
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ExtractionModel: "gpt-4o-mini",
//		AnswerModel:     "gpt-4o-mini",
//		ChatKey:         os.Getenv("AI_CHAT_KEY"),
//	})
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	if chatClient == nil {
		return nil
	}

	return &GraphOpenAIClient{
		extractionModel: params.ExtractionModel,
		answerModel:     params.AnswerModel,
		chatURL:         params.ChatURL,
		ChatClient:      chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics.
func (c *GraphOpenAIClient) ResetMetrics() {
	c.metrics.Reset()
}

// GetMetrics returns the token usage and timing since the last reset.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	return c.metrics.Snapshot()
}
