package fuzzy

import (
	"github.com/devapihub/apisearch/internal/store"
)

// filterFields are the exact-match attributes carried alongside the
// boosted text fields. They must stay in sync with buildMapping.
var filterFields = []string{"projectId", "status", "priority", "color"}

// FromCorpus converts rendered corpus documents of one entity type
// into indexable fuzzy documents. Only the fields the type's mapping
// knows about are carried over: the boosted text fields plus the
// exact-match filter attributes. Corpus IDs are kept as-is so fuzzy
// hits join cleanly with vector hits for the same entity.
func FromCorpus(typ store.EntityType, docs []store.Document) []Document {
	boosts := fieldBoosts[typ]

	out := make([]Document, len(docs))
	for i, d := range docs {
		fields := make(map[string]string, len(boosts)+len(filterFields))
		for key := range boosts {
			if s, ok := d.Metadata[key].(string); ok {
				fields[key] = s
			}
		}
		for _, key := range filterFields {
			if s, ok := d.Metadata[key].(string); ok {
				fields[key] = s
			}
		}
		out[i] = Document{ID: d.ID, Fields: fields}
	}
	return out
}
