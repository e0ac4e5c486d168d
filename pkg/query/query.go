// Package query answers free-text questions about a graph with a language
// model.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"
)

// ErrEmptyQuestion is returned before any model call when the question is
// blank.
var ErrEmptyQuestion = errors.New("no question provided")

// NoGraphContext replaces the graph section of the prompt when no graph
// exists.
const NoGraphContext = "No graph data available yet."

// NoDocumentContext replaces the document section of the prompt when no
// summary exists.
const NoDocumentContext = "Processing documents..."

const contextLimit = 20

type queryOptions struct {
	SystemPrompts []string
	Model         string
	Thinking      string
}

// QueryOption is a functional option for configuring query behavior.
type QueryOption func(*queryOptions)

// WithSystemPrompts returns a QueryOption that appends additional system
// prompts to guide the AI's response generation.
func WithSystemPrompts(prompts ...string) QueryOption {
	return func(o *queryOptions) {
		o.SystemPrompts = append(o.SystemPrompts, prompts...)
	}
}

// WithModel returns a QueryOption that specifies which AI model to use
// for generating responses.
func WithModel(model string) QueryOption {
	return func(o *queryOptions) {
		o.Model = model
	}
}

// WithThinking returns a QueryOption that enables extended thinking mode.
func WithThinking(thinking string) QueryOption {
	return func(o *queryOptions) {
		o.Thinking = thinking
	}
}

// GraphQueryClient builds the question prompt from a graph and streams the
// model's answer.
type GraphQueryClient struct {
	aiClient ai.GraphAIClient
	options  queryOptions
}

// NewGraphQueryClient creates a query client. aiClient may be nil, in which
// case every question fails with ai.ErrNotConfigured.
//
// Example:
//
//	client := query.NewGraphQueryClient(aiClient, query.WithModel("gpt-4.1"))
func NewGraphQueryClient(aiClient ai.GraphAIClient, opts ...QueryOption) *GraphQueryClient {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &GraphQueryClient{aiClient: aiClient, options: o}
}

// Configured reports whether a model is available.
func (c *GraphQueryClient) Configured() bool {
	return c != nil && c.aiClient != nil
}

// BuildGraphContext renders the graph part of the question prompt: counts,
// then at most 20 nodes and 20 links.
func BuildGraphContext(g *common.GraphData) string {
	if g == nil {
		return NoGraphContext
	}

	var b strings.Builder
	b.WriteString("Knowledge Graph Context:\n")
	fmt.Fprintf(&b, "- %d entities identified\n", len(g.Nodes))
	fmt.Fprintf(&b, "- %d relationships mapped\n", len(g.Links))

	b.WriteString("\nKey Entities:\n")
	for i, n := range g.Nodes {
		if i == contextLimit {
			break
		}
		description := n.Description
		if description == "" {
			description = "No description"
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", n.Name, n.Type, description)
	}

	b.WriteString("\nKey Relationships:\n")
	for i, l := range g.Links {
		if i == contextLimit {
			break
		}
		fmt.Fprintf(&b, "- %s %s %s\n", l.Source, l.Type, l.Target)
	}

	return b.String()
}

// BuildPrompt renders the full question prompt.
func BuildPrompt(question string, g *common.GraphData, summaries string) string {
	if strings.TrimSpace(summaries) == "" {
		summaries = NoDocumentContext
	}
	return fmt.Sprintf(ai.AnswerPrompt, BuildGraphContext(g), summaries, question)
}

// AnswerStream asks the model about g and returns the answer as a stream of
// fragments. A blank question or a missing model fail synchronously.
func (c *GraphQueryClient) AnswerStream(
	ctx context.Context,
	question string,
	g *common.GraphData,
	summaries string,
) (<-chan ai.StreamEvent, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if !c.Configured() {
		return nil, ai.ErrNotConfigured
	}

	msgs := []ai.ChatMessage{{
		Role:    "user",
		Message: BuildPrompt(question, g, summaries),
	}}

	generateOpts := []ai.GenerateOption{
		ai.WithTemperature(0.7),
		ai.WithMaxTokens(1000),
	}
	if len(c.options.SystemPrompts) > 0 {
		generateOpts = append(generateOpts, ai.WithSystemPrompts(c.options.SystemPrompts...))
	}
	if c.options.Model != "" {
		generateOpts = append(generateOpts, ai.WithModel(c.options.Model))
	}
	if c.options.Thinking != "" {
		generateOpts = append(generateOpts, ai.WithThinking(c.options.Thinking))
	}

	stream, err := c.aiClient.GenerateChatStream(ctx, msgs, generateOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer from AI: %w", err)
	}
	return stream, nil
}

// Collect drains ch and joins the content fragments. An error event ends
// collection and is returned together with the text received so far.
func Collect(ch <-chan ai.StreamEvent) (string, error) {
	var b strings.Builder
	for ev := range ch {
		switch ev.Type {
		case ai.StreamEventContent:
			b.WriteString(ev.Content)
		case ai.StreamEventError:
			for range ch {
			}
			return b.String(), errors.New(ev.Content)
		}
	}
	return b.String(), nil
}
