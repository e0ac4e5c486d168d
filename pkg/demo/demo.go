// Package demo holds precomputed datasets that can be shown without calling
// an extraction service.
package demo

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/graphmind/graphmind/pkg/common"

	"gopkg.in/yaml.v3"
)

// DefaultID is the dataset used when a demo document names no known dataset.
const DefaultID = "solar-system"

// Dataset is a document together with its already extracted graph.
type Dataset struct {
	ID            string                `yaml:"id" json:"id"`
	Name          string                `yaml:"name" json:"name"`
	Description   string                `yaml:"description" json:"description"`
	Content       string                `yaml:"content" json:"content"`
	Entities      []common.Entity       `yaml:"entities" json:"entities"`
	Relationships []common.Relationship `yaml:"relationships" json:"relationships"`
}

// Document returns the session document that stands in for the dataset.
func (d Dataset) Document() common.Document {
	return common.Document{
		ID:      common.DemoDocumentPrefix + d.ID,
		Name:    d.Name + " (Demo)",
		Content: d.Content,
		Type:    common.DocumentTypeText,
	}
}

//go:embed datasets/*.yaml
var files embed.FS

var catalog = mustLoad()

func mustLoad() map[string]Dataset {
	out, err := load()
	if err != nil {
		panic(err)
	}
	return out
}

func load() (map[string]Dataset, error) {
	entries, err := files.ReadDir("datasets")
	if err != nil {
		return nil, fmt.Errorf("failed to list demo datasets: %w", err)
	}

	out := make(map[string]Dataset, len(entries))
	for _, entry := range entries {
		data, err := files.ReadFile(path.Join("datasets", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read demo dataset %s: %w", entry.Name(), err)
		}
		var ds Dataset
		if err := yaml.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("failed to parse demo dataset %s: %w", entry.Name(), err)
		}
		out[ds.ID] = ds
	}
	return out, nil
}

// Lookup returns the dataset with the given id.
func Lookup(id string) (Dataset, bool) {
	ds, ok := catalog[id]
	return ds, ok
}

// Default returns the solar system dataset.
func Default() Dataset {
	return catalog[DefaultID]
}

// IDs lists all dataset ids in lexical order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
