package ollama

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/logger"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

const (
	contextHeadroom   = 200
	defaultContextLen = 4096
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// contextSize estimates the num_ctx needed for text plus the reply budget.
// Ollama silently truncates prompts longer than its default context, so the
// window is raised when the estimate exceeds it.
func contextSize(text string, maxTokens int) (int, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("o200k_base")
	})
	if encErr != nil {
		return 0, encErr
	}
	return len(enc.Encode(text, nil, nil)) + maxTokens + contextHeadroom, nil
}

// requestOptions never fails: without an encoder the server default context
// is kept.
func requestOptions(options ai.GenerateOptions, text string) map[string]any {
	out := map[string]any{"temperature": options.Temperature}
	if options.MaxTokens > 0 {
		out["num_predict"] = options.MaxTokens
	}
	tokens, err := contextSize(text, options.MaxTokens)
	if err != nil {
		logger.Debug("[Ollama] Token encoder unavailable, keeping default context", "err", err)
		return out
	}
	if tokens > defaultContextLen {
		out["num_ctx"] = tokens
	}
	return out
}

func toMessages(options ai.GenerateOptions, messages []ai.ChatMessage) ([]api.Message, string) {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	var all strings.Builder
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
		all.WriteString(sys)
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, api.Message{Role: role, Content: m.Message})
		all.WriteString(m.Message)
	}
	return msgs, all.String()
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.Options(ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.3,
	}, opts...)

	msgs, text := toMessages(options, []ai.ChatMessage{{Role: "user", Message: prompt}})
	reqOpts := requestOptions(options, text)

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  reqOpts,
	}
	if options.Thinking != "" {
		req.Think = &api.ThinkValue{Value: options.Thinking}
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	c.metrics.Add(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}

// GenerateChatStream streams the answer model's reply. The concurrency slot
// is held until the stream finishes.
func (c *GraphOllamaClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := ai.Options(ai.GenerateOptions{
		Model:       c.answerModel,
		Temperature: 0.7,
	}, opts...)

	msgs, text := toMessages(options, messages)
	reqOpts := requestOptions(options, text)

	stream := true
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  reqOpts,
	}
	if options.Thinking != "" {
		req.Think = &api.ThinkValue{Value: options.Thinking}
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	out := make(chan ai.StreamEvent, 16)

	go func() {
		defer close(out)
		defer c.reqLock.Release(1)

		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			if s := cr.Message.Thinking; s != "" {
				select {
				case out <- ai.StreamEvent{Type: ai.StreamEventStep, Step: "thinking", Reasoning: s}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if s := cr.Message.Content; s != "" {
				select {
				case out <- ai.StreamEvent{Type: ai.StreamEventContent, Content: s}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if cr.Done {
				c.metrics.Add(ai.ModelMetrics{
					InputTokens:  cr.Metrics.PromptEvalCount,
					OutputTokens: cr.Metrics.EvalCount,
					TotalTokens:  cr.Metrics.PromptEvalCount + cr.Metrics.EvalCount,
					DurationMs:   cr.TotalDuration.Milliseconds(),
				})
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			select {
			case out <- ai.StreamEvent{Type: ai.StreamEventError, Content: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}
