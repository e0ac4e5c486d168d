package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/graphmind/graphmind/internal/metrics"
	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/demo"
	"github.com/graphmind/graphmind/pkg/graph"
	"github.com/graphmind/graphmind/pkg/logger"
)

var (
	ErrUnknownDocument = errors.New("document not in session")
	ErrUnknownDataset  = errors.New("unknown demo dataset")
	ErrClosed          = errors.New("session controller closed")
)

// Controller drives a Store: it turns document changes into events and runs
// the extraction pipeline for every build in the background.
//
// Only the newest build can land. Starting a build cancels the one before
// it, and a result that still arrives late is rejected by Apply.
type Controller struct {
	store     *Store
	client    *graph.GraphClient
	extractor graph.Extractor
	metrics   *metrics.Collector

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewControllerParams configures a Controller. Metrics may be nil.
type NewControllerParams struct {
	GraphClient *graph.GraphClient
	Extractor   graph.Extractor
	Metrics     *metrics.Collector
}

// NewController creates a controller with an empty session.
func NewController(params NewControllerParams) *Controller {
	client := params.GraphClient
	if client == nil {
		client = graph.NewGraphClient(graph.NewGraphClientParams{Metrics: params.Metrics})
	}
	extractor := params.Extractor
	if extractor == nil {
		extractor = graph.NewAIExtractor(nil)
	}
	return &Controller{
		store:     NewStore(),
		client:    client,
		extractor: extractor,
		metrics:   params.Metrics,
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() State {
	return c.store.Snapshot()
}

// SetDocuments replaces the document set and, if needed, starts a build.
// The build outlives ctx; only its values are inherited.
func (c *Controller) SetDocuments(ctx context.Context, docs []common.Document) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setDocumentsLocked(ctx, docs)
}

// AddDocuments appends docs to the current set and rebuilds.
func (c *Controller) AddDocuments(ctx context.Context, docs []common.Document) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.store.Snapshot().Documents
	all := make([]common.Document, 0, len(current)+len(docs))
	all = append(all, current...)
	all = append(all, docs...)
	return c.setDocumentsLocked(ctx, all)
}

// RemoveDocument drops the document with the given id and rebuilds from the
// rest, or empties the session when nothing is left.
func (c *Controller) RemoveDocument(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.store.Snapshot()
	rest := make([]common.Document, 0, len(current.Documents))
	found := false
	for _, doc := range current.Documents {
		if doc.ID == id {
			found = true
			continue
		}
		rest = append(rest, doc)
	}
	if !found {
		return current, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	return c.setDocumentsLocked(ctx, rest)
}

// LoadDemo replaces the session with a demo dataset.
func (c *Controller) LoadDemo(id string) (State, error) {
	ds, ok := demo.Lookup(id)
	if !ok {
		return c.store.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownDataset, id)
	}

	doc := ds.Document()
	doc.Chunks = graph.ChunkText(doc.Content, c.client.MaxTokens())
	return c.SetDocuments(context.Background(), []common.Document{doc})
}

// Select marks a node of the current graph as selected.
func (c *Controller) Select(nodeID string) (State, error) {
	return c.store.Dispatch(NodeSelected{NodeID: nodeID})
}

// ClearSelection drops the selected node.
func (c *Controller) ClearSelection() (State, error) {
	return c.store.Dispatch(SelectionCleared{})
}

// Wait blocks until no build is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the running build and waits for it to return. Document
// changes after Close fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) setDocumentsLocked(ctx context.Context, docs []common.Document) (State, error) {
	if c.closed {
		return c.store.Snapshot(), ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	state, err := c.store.Dispatch(DocumentsAdded{Documents: docs})
	if err != nil {
		return state, err
	}

	switch state.Phase {
	case PhaseReady:
		c.observe("demo", state)
		logger.Info("[Session] Demo graph loaded", "nodes", len(state.GraphData.Nodes), "links", len(state.GraphData.Links))
	case PhaseEmpty:
		logger.Info("[Session] Session cleared")
	case PhaseLoading:
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel
		c.wg.Add(1)
		go c.run(runCtx, cancel, state.Build, state.Documents)
	}

	return state, nil
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, build uint64, docs []common.Document) {
	defer c.wg.Done()
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Session] Graph build panic recovered", "build", build, "panic", r)
			c.fail(build, fmt.Errorf("graph build panicked: %v", r))
		}
	}()

	logger.Info("[Session] Graph build started", "build", build, "documents", len(docs))

	res, err := c.client.ProcessDocuments(ctx, docs, c.extractor)
	if err != nil {
		c.fail(build, err)
		return
	}

	state, err := c.store.Dispatch(ExtractionCompleted{
		Build:         build,
		Entities:      res.Entities,
		Relationships: res.Relationships,
		Stats:         &res.Stats,
	})
	if err != nil {
		logger.Debug("[Session] Discarding graph build", "build", build, "err", err)
		return
	}

	c.observe("extraction", state)
	if n := graph.DanglingLinks(*state.GraphData); n > 0 {
		logger.Warn("[Session] Graph has links to unknown entities", "build", build, "links", n)
	}
	logger.Info(
		"[Session] Graph built",
		"build", build,
		"nodes", len(state.GraphData.Nodes),
		"links", len(state.GraphData.Links),
	)
}

func (c *Controller) fail(build uint64, err error) {
	if _, dErr := c.store.Dispatch(ExtractionFailed{Build: build, Err: err}); dErr != nil {
		logger.Debug("[Session] Discarding failed graph build", "build", build, "err", err)
		return
	}
	c.metrics.ObserveBuild("failed", 0, 0)
	logger.Error("[Session] Graph build failed", "build", build, "err", err)
}

func (c *Controller) observe(source string, state State) {
	if state.GraphData == nil {
		return
	}
	c.metrics.ObserveBuild(source, len(state.GraphData.Nodes), len(state.GraphData.Links))
}
