package graph

import (
	"math"
	"reflect"
	"testing"

	"github.com/graphmind/graphmind/pkg/common"
)

func TestBuildGraphSizeScenario(t *testing.T) {
	entities := []common.Entity{
		{ID: "a", Name: "A", Type: common.EntityTypeConcept, Importance: 0.2},
		{ID: "b", Name: "B", Type: common.EntityTypeConcept},
		{ID: "c", Name: "C", Type: common.EntityTypeConcept},
		{ID: "d", Name: "D", Type: common.EntityTypeConcept},
		{ID: "e", Name: "E", Type: common.EntityTypeConcept},
		{ID: "f", Name: "F", Type: common.EntityTypeConcept},
	}
	relationships := []common.Relationship{
		{Source: "a", Target: "b", Type: "t", Strength: 0.9},
		{Source: "a", Target: "c", Type: "t", Strength: 0.1},
		{Source: "d", Target: "a", Type: "t", Strength: 0.5},
		{Source: "a", Target: "e", Type: "t", Strength: 0.2},
		{Source: "f", Target: "a", Type: "t", Strength: 0.6},
	}

	g := BuildGraph(entities, relationships)

	node, ok := g.Node("a")
	if !ok {
		t.Fatalf("node a missing")
	}
	if node.Size != 11 {
		t.Fatalf("size = %v, want 11 (5 links*2 + 0.2*5)", node.Size)
	}
	if len(g.Links) != 3 {
		t.Fatalf("links = %d, want 3 above threshold", len(g.Links))
	}
}

func TestBuildGraphOrbitsScenario(t *testing.T) {
	entities := []common.Entity{
		{ID: "earth", Name: "Earth", Type: common.EntityTypePlace, Importance: 1},
		{ID: "sun", Name: "Sun", Type: common.EntityTypePlace, Importance: 1},
	}
	relationships := []common.Relationship{
		{Source: "earth", Target: "sun", Type: "orbits", Strength: 1.0},
		{Source: "sun", Target: "earth", Type: "orbits", Strength: 0.4},
	}

	g := BuildFromExtraction(entities, relationships)

	want := []common.GraphLink{
		{Source: "earth", Target: "sun", Type: "orbits", Value: 2.0, Color: LinkColor},
	}
	if !reflect.DeepEqual(g.Links, want) {
		t.Fatalf("links = %+v, want %+v", g.Links, want)
	}
}

func TestBuildGraphMarsScenario(t *testing.T) {
	entities := []common.Entity{
		{ID: "mars", Name: "Mars", Type: common.EntityTypePlace, Importance: 0.9},
		{ID: "mars-planet", Name: "mars", Type: common.EntityTypePlace, Importance: 0.95},
	}

	g := BuildFromExtraction(entities, nil)
	if len(g.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(g.Nodes))
	}
	if g.Nodes[0].ID != "mars-planet" {
		t.Fatalf("surviving id = %q, want mars-planet", g.Nodes[0].ID)
	}
	if g.Nodes[0].Color != "#F59E0B" {
		t.Fatalf("color = %q, want place color", g.Nodes[0].Color)
	}
}

func TestBuildGraphThreshold(t *testing.T) {
	relationships := []common.Relationship{
		{Source: "a", Target: "b", Type: "t", Strength: 0.3},
		{Source: "a", Target: "c", Type: "t", Strength: 0.29999},
		{Source: "a", Target: "d", Type: "t", Strength: math.NaN()},
	}
	g := BuildGraph(nil, relationships)
	if len(g.Links) != 1 || g.Links[0].Target != "b" {
		t.Fatalf("links = %+v, want only a->b", g.Links)
	}
	if g.Links[0].Value != 0.6 {
		t.Fatalf("value = %v, want 0.6", g.Links[0].Value)
	}
}

func TestBuildGraphDanglingLinksPassThrough(t *testing.T) {
	entities := []common.Entity{{ID: "a", Name: "A"}}
	relationships := []common.Relationship{{Source: "a", Target: "ghost", Type: "t", Strength: 0.9}}

	g := BuildGraph(entities, relationships)
	if len(g.Links) != 1 {
		t.Fatalf("dangling link dropped")
	}
	if n := DanglingLinks(g); n != 1 {
		t.Fatalf("DanglingLinks() = %d, want 1", n)
	}
	// the dangling relationship still counts toward connectivity
	if g.Nodes[0].Size != 5 {
		t.Fatalf("size = %v, want 5", g.Nodes[0].Size)
	}
}

func TestBuildGraphIsPure(t *testing.T) {
	entities := []common.Entity{
		{ID: "a", Name: "A", Type: common.EntityTypePerson, Importance: 0.5},
		{ID: "b", Name: "B", Type: "spaceship", Importance: 0.5},
	}
	relationships := []common.Relationship{{Source: "a", Target: "b", Type: "flies", Strength: 0.7}}

	first := BuildGraph(entities, relationships)
	second := BuildGraph(entities, relationships)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("BuildGraph is not deterministic")
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		input common.EntityType
		want  string
	}{
		{common.EntityTypeConcept, "#3B82F6"},
		{common.EntityTypePerson, "#10B981"},
		{common.EntityTypePlace, "#F59E0B"},
		{common.EntityTypeEvent, "#EC4899"},
		{common.EntityTypeOrganization, "#8B5CF6"},
		{common.EntityTypeTechnology, "#06B6D4"},
		{common.EntityTypeOther, "#6B7280"},
		{"Person", "#10B981"},
		{"spaceship", "#6B7280"},
		{"", "#6B7280"},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.input); got != tt.want {
			t.Errorf("ColorFor(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNodeSizeBounds(t *testing.T) {
	tests := []struct {
		conn       int
		importance float64
		want       float64
	}{
		{0, 0, 5},
		{0, 0.5, 5},
		{1, 1, 7},
		{100, 1, 20},
		{0, -10, 5},
		{0, math.Inf(1), 20},
		{0, math.Inf(-1), 5},
		{0, math.NaN(), 5},
	}
	for _, tt := range tests {
		if got := NodeSize(tt.conn, tt.importance); got != tt.want {
			t.Errorf("NodeSize(%d, %v) = %v, want %v", tt.conn, tt.importance, got, tt.want)
		}
	}
}

func TestNeighbors(t *testing.T) {
	g := BuildGraph(
		[]common.Entity{
			{ID: "sun", Name: "Sun"},
			{ID: "earth", Name: "Earth"},
			{ID: "mars", Name: "Mars"},
		},
		[]common.Relationship{
			{Source: "earth", Target: "sun", Type: "orbits", Strength: 1},
			{Source: "mars", Target: "sun", Type: "orbits", Strength: 1},
			{Source: "sun", Target: "ghost", Type: "t", Strength: 1},
			{Source: "earth", Target: "mars", Type: "near", Strength: 0.5},
		},
	)

	got := Neighbors(g, "sun")
	if len(got) != 2 {
		t.Fatalf("neighbors = %+v, want earth and mars", got)
	}
	if got[0].Node.ID != "earth" || got[1].Node.ID != "mars" {
		t.Fatalf("neighbor order = %s, %s", got[0].Node.ID, got[1].Node.ID)
	}
	if got[0].Outgoing {
		t.Fatalf("earth -> sun should be incoming for sun")
	}

	if n := Neighbors(g, "nobody"); len(n) != 0 {
		t.Fatalf("unknown node has neighbors: %+v", n)
	}
}
