// Package session holds the graph state of one workspace: the document set,
// the graph built from it and the selected node.
//
// Every change goes through Apply, a pure transition function. Store and
// Controller wrap it for concurrent use.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphmind/graphmind/pkg/common"
	"github.com/graphmind/graphmind/pkg/demo"
	"github.com/graphmind/graphmind/pkg/graph"
)

var (
	ErrInvalidTransition = errors.New("event not allowed in current phase")
	ErrUnknownNode       = errors.New("node not in graph")
	ErrStaleBuild        = errors.New("result belongs to a superseded build")
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseEmpty   Phase = "empty"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// State is an immutable snapshot of a session. GraphData and SelectedNode
// are replaced, never modified in place.
type State struct {
	Phase        Phase               `json:"phase"`
	Documents    []common.Document   `json:"documents"`
	GraphData    *common.GraphData   `json:"graphData,omitempty"`
	SelectedNode *common.GraphNode   `json:"selectedNode,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	Error        string              `json:"error,omitempty"`
	Stats        *graph.ProcessStats `json:"stats,omitempty"`
	Build        uint64              `json:"build"`
}

// Event is an input to Apply.
type Event interface {
	event()
}

// DocumentsAdded replaces the document set. An empty set clears the
// session. A set holding a demo document loads that dataset's graph.
// Anything else starts a new build.
type DocumentsAdded struct {
	Documents []common.Document
}

// ExtractionCompleted carries the raw output of build Build.
type ExtractionCompleted struct {
	Build         uint64
	Entities      []common.Entity
	Relationships []common.Relationship
	Stats         *graph.ProcessStats
}

// ExtractionFailed ends build Build without a graph.
type ExtractionFailed struct {
	Build uint64
	Err   error
}

// NodeSelected selects a node of the current graph.
type NodeSelected struct {
	NodeID string
}

// SelectionCleared drops the selected node.
type SelectionCleared struct{}

func (DocumentsAdded) event()      {}
func (ExtractionCompleted) event() {}
func (ExtractionFailed) event()    {}
func (NodeSelected) event()        {}
func (SelectionCleared) event()    {}

// Apply returns the state that follows s after e. On error s is returned
// unchanged.
func Apply(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case DocumentsAdded:
		return applyDocuments(s, ev), nil

	case ExtractionCompleted:
		if s.Phase != PhaseLoading || ev.Build != s.Build {
			return s, ErrStaleBuild
		}
		g := graph.BuildFromExtraction(ev.Entities, ev.Relationships)
		next := s
		next.Phase = PhaseReady
		next.GraphData = &g
		next.SelectedNode = nil
		next.Error = ""
		next.Stats = ev.Stats
		next.Summary = summarize(s.Documents)
		return next, nil

	case ExtractionFailed:
		if s.Phase != PhaseLoading || ev.Build != s.Build {
			return s, ErrStaleBuild
		}
		next := s
		next.Phase = PhaseFailed
		next.GraphData = nil
		next.SelectedNode = nil
		next.Stats = nil
		next.Error = "failed to build knowledge graph"
		if ev.Err != nil {
			next.Error = ev.Err.Error()
		}
		return next, nil

	case NodeSelected:
		if s.Phase != PhaseReady {
			return s, ErrInvalidTransition
		}
		node, ok := s.GraphData.Node(ev.NodeID)
		if !ok {
			return s, fmt.Errorf("%w: %s", ErrUnknownNode, ev.NodeID)
		}
		next := s
		next.SelectedNode = &node
		return next, nil

	case SelectionCleared:
		if s.Phase != PhaseReady {
			return s, ErrInvalidTransition
		}
		next := s
		next.SelectedNode = nil
		return next, nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, e)
	}
}

func applyDocuments(s State, ev DocumentsAdded) State {
	next := State{
		Documents: append([]common.Document(nil), ev.Documents...),
		Build:     s.Build + 1,
	}

	if len(ev.Documents) == 0 {
		next.Phase = PhaseEmpty
		next.Documents = nil
		return next
	}

	for _, doc := range ev.Documents {
		if !doc.IsDemo() {
			continue
		}
		ds, ok := demo.Lookup(doc.DemoDatasetID())
		if !ok {
			ds = demo.Default()
		}
		g := graph.BuildGraph(ds.Entities, ds.Relationships)
		next.Phase = PhaseReady
		next.GraphData = &g
		next.Summary = ds.Description
		return next
	}

	// the previous graph stays visible until the new one is ready
	next.Phase = PhaseLoading
	next.GraphData = s.GraphData
	next.Summary = s.Summary
	return next
}

func summarize(docs []common.Document) string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return fmt.Sprintf("Processed %d documents: %s", len(docs), strings.Join(names, ", "))
}
