package reconcile

import "github.com/dbsmedya/goalias/internal/types"

// Reconcile performs a full outer join of the two generations on natural
// key. The first pass records every old identifier, the second attaches new
// identifiers, creating entries for keys the old dump lacked. Neither input
// needs to be sorted. Within one generation the last occurrence of a key
// wins; every overwrite is listed in Dataset.Duplicates.
func Reconcile(kind types.RecordKind, oldEntries, newEntries []types.ParsedEntry) *Dataset {
	ds := NewDataset(kind)

	for _, e := range oldEntries {
		ds.setOld(e.Key, e.ID)
	}
	for _, e := range newEntries {
		ds.setNew(e.Key, e.ID)
	}

	return ds
}
