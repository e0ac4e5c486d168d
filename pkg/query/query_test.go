package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// streamClient emits fragments one by one. When block is set it waits for
// ctx to end after the first fragment.
type streamClient struct {
	mu        sync.Mutex
	fragments []string
	block     bool
	fail      string
	messages  [][]ai.ChatMessage
	options   []ai.GenerateOptions
}

func (s *streamClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not implemented")
}

func (s *streamClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	s.mu.Lock()
	s.messages = append(s.messages, messages)
	s.options = append(s.options, ai.Options(ai.GenerateOptions{}, opts...))
	fragments, block, fail := s.fragments, s.block, s.fail
	s.mu.Unlock()

	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		for i, f := range fragments {
			select {
			case out <- ai.StreamEvent{Type: ai.StreamEventContent, Content: f}:
			case <-ctx.Done():
				return
			}
			if block && i == 0 {
				<-ctx.Done()
				return
			}
		}
		if fail != "" {
			select {
			case out <- ai.StreamEvent{Type: ai.StreamEventError, Content: fail}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (s *streamClient) ResetMetrics()               {}
func (s *streamClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func testGraph(nodes, links int) *common.GraphData {
	g := &common.GraphData{}
	for i := 0; i < nodes; i++ {
		g.Nodes = append(g.Nodes, common.GraphNode{
			ID:   fmt.Sprintf("n%d", i),
			Name: fmt.Sprintf("Node %d", i),
			Type: common.EntityTypeConcept,
		})
	}
	for i := 0; i < links; i++ {
		g.Links = append(g.Links, common.GraphLink{
			Source: fmt.Sprintf("n%d", i),
			Target: fmt.Sprintf("n%d", i+1),
			Type:   "relates-to",
		})
	}
	return g
}

func TestBuildGraphContext(t *testing.T) {
	if got := BuildGraphContext(nil); got != NoGraphContext {
		t.Fatalf("nil graph context = %q", got)
	}

	g := testGraph(25, 30)
	g.Nodes[0].Description = "The first node"
	got := BuildGraphContext(g)

	for _, want := range []string{
		"- 25 entities identified",
		"- 30 relationships mapped",
		"- Node 0 (concept): The first node",
		"- Node 1 (concept): No description",
		"- Node 19 (concept)",
		"- n19 relates-to n20",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("context missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"Node 20 ", "n20 relates-to n21"} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("context contains %q beyond the limit", unwanted)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("What orbits the Sun?", nil, "")
	for _, want := range []string{NoGraphContext, NoDocumentContext, "User Question: What orbits the Sun?"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestAnswerStreamValidation(t *testing.T) {
	client := NewGraphQueryClient(&streamClient{})
	if _, err := client.AnswerStream(context.Background(), "   ", nil, ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}

	unconfigured := NewGraphQueryClient(nil)
	if _, err := unconfigured.AnswerStream(context.Background(), "why?", nil, ""); !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestAnswerStreamCollect(t *testing.T) {
	fake := &streamClient{fragments: []string{"Mars ", "is ", "red."}}
	client := NewGraphQueryClient(fake, WithModel("answer-model"))

	ch, err := client.AnswerStream(context.Background(), "Which planet is red?", testGraph(2, 1), "Processed 1 documents: planets.txt")
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}
	answer, err := Collect(ch)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if answer != "Mars is red." {
		t.Fatalf("answer = %q", answer)
	}

	opts := fake.options[0]
	if opts.Temperature != 0.7 || opts.MaxTokens != 1000 || opts.Model != "answer-model" {
		t.Fatalf("options = %+v", opts)
	}
	prompt := fake.messages[0][0].Message
	if !strings.Contains(prompt, "Processed 1 documents: planets.txt") {
		t.Fatalf("prompt missing summary:\n%s", prompt)
	}
}

func TestCollectReturnsStreamError(t *testing.T) {
	fake := &streamClient{fragments: []string{"partial"}, fail: "connection reset"}
	client := NewGraphQueryClient(fake)

	ch, err := client.AnswerStream(context.Background(), "q", nil, "")
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}
	answer, err := Collect(ch)
	if err == nil || err.Error() != "connection reset" {
		t.Fatalf("err = %v", err)
	}
	if answer != "partial" {
		t.Fatalf("answer = %q", answer)
	}
}

func TestStreamManagerCancelsPreviousAnswer(t *testing.T) {
	collector := metrics.NewCollector()
	blocking := &streamClient{fragments: []string{"first"}, block: true}
	manager := NewStreamManager(NewGraphQueryClient(blocking), collector)

	first, err := manager.Ask(context.Background(), "one", nil, "")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ev := <-first; ev.Content != "first" {
		t.Fatalf("first fragment = %+v", ev)
	}

	blocking.mu.Lock()
	blocking.block = false
	blocking.fragments = []string{"second"}
	blocking.mu.Unlock()

	second, err := manager.Ask(context.Background(), "two", nil, "")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	select {
	case _, ok := <-first:
		if ok {
			for range first {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("first stream was not cancelled")
	}

	answer, err := Collect(second)
	if err != nil || answer != "second" {
		t.Fatalf("second answer = %q, err = %v", answer, err)
	}

	if _, err := manager.Ask(context.Background(), "", nil, ""); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
	if got := testutil.ToFloat64(collector.Answers(AnswerRejected)); got != 1 {
		t.Fatalf("rejected answers = %v, want 1", got)
	}
}
