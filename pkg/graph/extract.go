package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/ai"
	"github.com/graphmind/graphmind/pkg/common"
)

// ErrUnparseableExtraction is returned together with an empty result when
// the model answer contains no usable JSON object.
var ErrUnparseableExtraction = errors.New("failed to parse extraction response")

// MockWarning is attached to the placeholder result returned when no model
// is configured.
const MockWarning = "Using mock data - AI credentials not configured"

// Extractor turns one chunk of text into entities and relationships.
// chunkIndex is 1-based.
type Extractor interface {
	Extract(
		ctx context.Context,
		chunk string,
		chunkIndex int,
		totalChunks int,
	) (common.ExtractionResult, error)
}

// MockExtraction is the fixed payload used when no model credentials exist.
func MockExtraction() common.ExtractionResult {
	return common.ExtractionResult{
		Entities: []common.Entity{
			{ID: "entity-1", Name: "Sample Entity", Type: common.EntityTypeConcept, Importance: 0.8},
			{ID: "entity-2", Name: "Another Entity", Type: common.EntityTypeConcept, Importance: 0.6},
		},
		Relationships: []common.Relationship{
			{Source: "entity-1", Target: "entity-2", Type: "relates-to", Strength: 0.7},
		},
		Warning: MockWarning,
	}
}

// AIExtractor extracts with a language model. A nil client makes every call
// return MockExtraction.
type AIExtractor struct {
	client ai.GraphAIClient
	schema string
}

// NewAIExtractor creates an extractor backed by client. client may be nil.
func NewAIExtractor(client ai.GraphAIClient) *AIExtractor {
	return &AIExtractor{
		client: client,
		schema: ai.SchemaString(&common.ExtractionResult{}),
	}
}

// Configured reports whether a model is behind the extractor.
func (e *AIExtractor) Configured() bool {
	return e != nil && e.client != nil
}

// Extract prompts the model and parses its answer. When the answer cannot be
// parsed the returned result is empty and the error is
// ErrUnparseableExtraction.
func (e *AIExtractor) Extract(
	ctx context.Context,
	chunk string,
	chunkIndex int,
	totalChunks int,
) (common.ExtractionResult, error) {
	if !e.Configured() {
		return MockExtraction(), nil
	}

	prompt := fmt.Sprintf(ai.ExtractPrompt, e.schema, chunkIndex, totalChunks, chunk)
	raw, err := e.client.GenerateCompletion(
		ctx,
		prompt,
		ai.WithTemperature(0.3),
		ai.WithMaxTokens(2000),
	)
	if err != nil {
		return common.ExtractionResult{}, fmt.Errorf("failed to generate extraction: %w", err)
	}

	return ParseExtraction(raw)
}

// ParseExtraction reads an extraction result out of raw model output.
//
// The whole text is tried first, then the first balanced {...} block in it,
// which is also run through JSON repair. Entities and relationships are
// decoded one by one, so a malformed element is dropped without losing the
// rest. If nothing parses the result is empty and the error is
// ErrUnparseableExtraction. Parsed results are sanitised.
func ParseExtraction(raw string) (common.ExtractionResult, error) {
	var doc rawExtraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err == nil {
		return sanitiseExtraction(doc.decode()), nil
	}

	if obj, ok := ai.ExtractJSONObject(raw); ok {
		doc = rawExtraction{}
		if err := ai.UnmarshalFlexible(obj, &doc); err == nil {
			return sanitiseExtraction(doc.decode()), nil
		}
	}

	return emptyExtraction(), ErrUnparseableExtraction
}

type rawExtraction struct {
	Entities      []json.RawMessage `json:"entities"`
	Relationships []json.RawMessage `json:"relationships"`
	Warning       string            `json:"warning,omitempty"`
}

func (r rawExtraction) decode() common.ExtractionResult {
	res := common.ExtractionResult{Warning: r.Warning}
	for _, msg := range r.Entities {
		var entity common.Entity
		if err := json.Unmarshal(msg, &entity); err != nil {
			continue
		}
		res.Entities = append(res.Entities, entity)
	}
	for _, msg := range r.Relationships {
		var rel common.Relationship
		if err := json.Unmarshal(msg, &rel); err != nil {
			continue
		}
		res.Relationships = append(res.Relationships, rel)
	}
	return res
}

func emptyExtraction() common.ExtractionResult {
	return common.ExtractionResult{
		Entities:      []common.Entity{},
		Relationships: []common.Relationship{},
	}
}

// sanitiseExtraction drops entities without a name and relationships without
// both endpoints. A missing entity id is derived from the name. Types and
// scores are left alone.
func sanitiseExtraction(res common.ExtractionResult) common.ExtractionResult {
	entities := make([]common.Entity, 0, len(res.Entities))
	for _, entity := range res.Entities {
		entity.Name = strings.TrimSpace(entity.Name)
		if entity.Name == "" {
			continue
		}
		entity.ID = strings.TrimSpace(entity.ID)
		if entity.ID == "" {
			entity.ID = util.Slugify(entity.Name)
		}
		entities = append(entities, entity)
	}

	relationships := make([]common.Relationship, 0, len(res.Relationships))
	for _, rel := range res.Relationships {
		if strings.TrimSpace(rel.Source) == "" || strings.TrimSpace(rel.Target) == "" {
			continue
		}
		relationships = append(relationships, rel)
	}

	return common.ExtractionResult{
		Entities:      entities,
		Relationships: relationships,
		Warning:       res.Warning,
	}
}
