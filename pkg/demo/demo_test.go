package demo

import (
	"strings"
	"testing"
)

func TestSolarSystemDataset(t *testing.T) {
	ds, ok := Lookup("solar-system")
	if !ok {
		t.Fatalf("solar-system dataset missing, have %v", IDs())
	}

	if ds.Name != "Solar System" {
		t.Errorf("name = %q", ds.Name)
	}
	if ds.Description != "Explore planets, moons, and space missions" {
		t.Errorf("description = %q", ds.Description)
	}
	if len(ds.Entities) != 26 {
		t.Errorf("entities = %d, want 26", len(ds.Entities))
	}
	if len(ds.Relationships) != 38 {
		t.Errorf("relationships = %d, want 38", len(ds.Relationships))
	}
	if paragraphs := strings.Count(ds.Content, "\n\n"); paragraphs != 2 {
		t.Errorf("content has %d paragraph breaks, want 2", paragraphs)
	}
	if !strings.HasPrefix(ds.Content, "The Solar System consists") {
		t.Errorf("content starts with %q", ds.Content[:20])
	}
}

func TestSolarSystemReferencesResolve(t *testing.T) {
	ds := Default()
	ids := make(map[string]bool, len(ds.Entities))
	for _, e := range ds.Entities {
		if e.ID == "" || e.Name == "" || e.Type == "" {
			t.Fatalf("incomplete entity %+v", e)
		}
		ids[e.ID] = true
	}
	for _, r := range ds.Relationships {
		if !ids[r.Source] || !ids[r.Target] {
			t.Fatalf("relationship %s -> %s references unknown id", r.Source, r.Target)
		}
		if r.Strength <= 0 || r.Strength > 1 {
			t.Fatalf("relationship %+v has strength out of range", r)
		}
	}

	galileo := ds.Entities[16]
	if galileo.ID != "galileo" || galileo.Description != "Discovered Jupiter's four largest moons" {
		t.Fatalf("entity 16 = %+v", galileo)
	}
}

func TestDocument(t *testing.T) {
	doc := Default().Document()
	if doc.ID != "demo-solar-system" || doc.Name != "Solar System (Demo)" {
		t.Fatalf("document = %+v", doc)
	}
	if !doc.IsDemo() || doc.DemoDatasetID() != "solar-system" {
		t.Fatalf("document not recognised as demo")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("andromeda"); ok {
		t.Fatalf("unknown dataset found")
	}
}
