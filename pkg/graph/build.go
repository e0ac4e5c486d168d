package graph

import (
	"math"
	"strings"

	"github.com/graphmind/graphmind/pkg/common"
)

const (
	// MinLinkStrength is the lowest strength that is still drawn as a link.
	MinLinkStrength = 0.3
	// LinkColor is shared by every link.
	LinkColor = "rgba(156, 163, 175, 0.3)"

	minNodeSize = 5.0
	maxNodeSize = 20.0
)

var typeColors = map[common.EntityType]string{
	common.EntityTypeConcept:      "#3B82F6",
	common.EntityTypePerson:       "#10B981",
	common.EntityTypePlace:        "#F59E0B",
	common.EntityTypeEvent:        "#EC4899",
	common.EntityTypeOrganization: "#8B5CF6",
	common.EntityTypeTechnology:   "#06B6D4",
	common.EntityTypeOther:        "#6B7280",
}

// ColorFor returns the node color for an entity type. Unknown or empty types
// get the color of EntityTypeOther.
func ColorFor(t common.EntityType) string {
	if c, ok := typeColors[common.EntityType(strings.ToLower(strings.TrimSpace(string(t))))]; ok {
		return c
	}
	return typeColors[common.EntityTypeOther]
}

// NodeSize maps connectivity and importance to a radius in [5, 20].
func NodeSize(connectivity int, importance float64) float64 {
	size := float64(connectivity)*2 + importance*5
	if math.IsNaN(size) {
		return minNodeSize
	}
	return math.Max(minNodeSize, math.Min(maxNodeSize, size))
}

// BuildGraph derives the renderable graph from reconciled entities and
// relationships. It is a pure function of its inputs.
//
// Connectivity counts every relationship, including weak ones that are not
// drawn and ones whose endpoints are not in the entity set. Links are kept
// as given, so a link may reference an id with no node.
func BuildGraph(entities []common.Entity, relationships []common.Relationship) common.GraphData {
	connectivity := make(map[string]int, len(entities))
	for _, rel := range relationships {
		connectivity[rel.Source]++
		connectivity[rel.Target]++
	}

	nodes := make([]common.GraphNode, 0, len(entities))
	for _, entity := range entities {
		nodes = append(nodes, common.GraphNode{
			ID:          entity.ID,
			Name:        entity.Name,
			Type:        entity.Type,
			Size:        NodeSize(connectivity[entity.ID], entity.Importance),
			Color:       ColorFor(entity.Type),
			Description: entity.Description,
		})
	}

	links := make([]common.GraphLink, 0, len(relationships))
	for _, rel := range relationships {
		if !(rel.Strength >= MinLinkStrength) {
			continue
		}
		links = append(links, common.GraphLink{
			Source: rel.Source,
			Target: rel.Target,
			Type:   rel.Type,
			Value:  rel.Strength * 2,
			Color:  LinkColor,
		})
	}

	return common.GraphData{Nodes: nodes, Links: links}
}

// BuildFromExtraction reconciles raw extraction output and builds the graph.
func BuildFromExtraction(entities []common.Entity, relationships []common.Relationship) common.GraphData {
	return BuildGraph(Reconcile(entities, relationships))
}

// DanglingLinks counts links with at least one endpoint missing from the
// node set.
func DanglingLinks(g common.GraphData) int {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	count := 0
	for _, l := range g.Links {
		_, okS := ids[l.Source]
		_, okT := ids[l.Target]
		if !okS || !okT {
			count++
		}
	}
	return count
}

// Neighbor is a node connected to a selected node, with the link joining them.
type Neighbor struct {
	Node     common.GraphNode `json:"node"`
	Link     common.GraphLink `json:"link"`
	Outgoing bool             `json:"outgoing"`
}

// Neighbors lists the nodes linked to id, in link order. Links whose other
// end has no node are skipped.
func Neighbors(g common.GraphData, id string) []Neighbor {
	byID := make(map[string]common.GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	out := make([]Neighbor, 0)
	for _, l := range g.Links {
		var other string
		outgoing := false
		switch {
		case l.Source == id:
			other, outgoing = l.Target, true
		case l.Target == id:
			other = l.Source
		default:
			continue
		}
		node, ok := byID[other]
		if !ok {
			continue
		}
		out = append(out, Neighbor{Node: node, Link: l, Outgoing: outgoing})
	}
	return out
}
