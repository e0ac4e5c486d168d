package common

import "strings"

// EntityType classifies an entity. The set is closed, but values outside of
// it are tolerated everywhere and rendered like EntityTypeOther.
type EntityType string

const (
	EntityTypeConcept      EntityType = "concept"
	EntityTypePerson       EntityType = "person"
	EntityTypePlace        EntityType = "place"
	EntityTypeEvent        EntityType = "event"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeTechnology   EntityType = "technology"
	EntityTypeOther        EntityType = "other"
)

// EntityTypes lists every known entity type in display order.
var EntityTypes = []EntityType{
	EntityTypeConcept,
	EntityTypePerson,
	EntityTypePlace,
	EntityTypeEvent,
	EntityTypeOrganization,
	EntityTypeTechnology,
	EntityTypeOther,
}

// Entity is a named thing extracted from a chunk of text.
//
// IDs are supplied by the extraction service and are not guaranteed to be
// unique across chunks; reconciliation happens on the lowercased name.
// Importance is intended to lie in [0,1] but is not enforced.
type Entity struct {
	ID          string     `json:"id" jsonschema_description:"unique identifier, lowercase and hyphenated"`
	Name        string     `json:"name" jsonschema_description:"display name"`
	Type        EntityType `json:"type" jsonschema:"enum=concept,enum=person,enum=place,enum=event,enum=organization,enum=technology,enum=other"`
	Description string     `json:"description,omitempty" jsonschema_description:"brief description, at most 50 characters"`
	Importance  float64    `json:"importance" jsonschema_description:"0-1 score based on significance"`
}

// Relationship is a typed, weighted edge between two entity ids. Source and
// Target may reference ids that never appear as entities.
type Relationship struct {
	Source   string  `json:"source" jsonschema_description:"source entity id"`
	Target   string  `json:"target" jsonschema_description:"target entity id"`
	Type     string  `json:"type" jsonschema_description:"relationship type such as relates-to, part-of or created-by"`
	Strength float64 `json:"strength" jsonschema_description:"0-1 score"`
}

// ExtractionResult is what the extraction service returns for one chunk.
type ExtractionResult struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	Warning       string         `json:"warning,omitempty"`
}

// GraphNode is the renderable form of an entity.
type GraphNode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        EntityType `json:"type"`
	Size        float64    `json:"size"`
	Color       string     `json:"color"`
	Description string     `json:"description,omitempty"`
}

// GraphLink is the renderable form of a relationship.
type GraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Color  string  `json:"color"`
}

// GraphData is the complete renderable graph. It is always replaced as a
// whole, never patched.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Node returns the node with the given id.
func (g *GraphData) Node(id string) (GraphNode, bool) {
	if g == nil {
		return GraphNode{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// DocumentType records where a document's content came from.
type DocumentType string

const (
	DocumentTypeFile DocumentType = "file"
	DocumentTypeURL  DocumentType = "url"
	DocumentTypeText DocumentType = "text"
)

// DemoDocumentPrefix marks a document as a reference to a precomputed
// demo dataset instead of real content.
const DemoDocumentPrefix = "demo-"

// Document is a processed input. Chunks is filled by the chunker.
type Document struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Content string       `json:"content"`
	Type    DocumentType `json:"type"`
	Chunks  []string     `json:"chunks,omitempty"`
}

// IsDemo reports whether the document stands in for a demo dataset.
func (d Document) IsDemo() bool {
	return strings.HasPrefix(d.ID, DemoDocumentPrefix)
}

// DemoDatasetID returns the dataset id referenced by a demo document.
func (d Document) DemoDatasetID() string {
	return strings.TrimPrefix(d.ID, DemoDocumentPrefix)
}
