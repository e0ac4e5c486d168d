package graph

import (
	"github.com/graphmind/graphmind/pkg/common"
)

type relationKey struct {
	source string
	target string
	kind   string
}

// MergeRelationships collapses relationships that connect the same pair of
// ids with the same type, in either direction.
//
// A -[t]-> B and B -[t]-> A are one relationship. The merged strength is the
// maximum seen and the direction is the one inserted first. Relationships
// with different types between the same pair stay separate.
func MergeRelationships(relationships []common.Relationship) []common.Relationship {
	out := make([]common.Relationship, 0, len(relationships))
	index := make(map[relationKey]int, len(relationships))

	for _, rel := range relationships {
		forward := relationKey{rel.Source, rel.Target, rel.Type}
		reverse := relationKey{rel.Target, rel.Source, rel.Type}

		i, ok := index[forward]
		if !ok {
			i, ok = index[reverse]
		}
		if ok {
			if rel.Strength > out[i].Strength {
				out[i].Strength = rel.Strength
			}
			continue
		}

		index[forward] = len(out)
		out = append(out, rel)
	}

	return out
}

// Reconcile runs entity deduplication and relationship merging.
func Reconcile(
	entities []common.Entity,
	relationships []common.Relationship,
) ([]common.Entity, []common.Relationship) {
	return DedupeEntities(entities), MergeRelationships(relationships)
}
