package graph

import (
	"strings"

	"github.com/graphmind/graphmind/pkg/common"
)

// DedupeEntities collapses entities whose names match case-insensitively.
//
// For each name the entity with the highest importance survives; on a tie
// the first one seen wins. The survivor takes the position of the first
// entity seen with that name, so the output order is stable for a given
// input order.
func DedupeEntities(entities []common.Entity) []common.Entity {
	out := make([]common.Entity, 0, len(entities))
	index := make(map[string]int, len(entities))

	for _, entity := range entities {
		key := strings.ToLower(entity.Name)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, entity)
			continue
		}
		if entity.Importance > out[i].Importance {
			out[i] = entity
		}
	}

	return out
}
