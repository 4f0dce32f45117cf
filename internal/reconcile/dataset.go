// Package reconcile joins the parsed rows of two dump generations by natural key.
package reconcile

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/goalias/internal/types"
)

// Generation names which dump a value came from.
type Generation string

const (
	GenerationOld Generation = "old"
	GenerationNew Generation = "new"
)

// Entry holds the identifiers seen for one natural key. Either side may be
// absent; an entry is complete only when both are present.
type Entry struct {
	Old    string
	New    string
	HasOld bool
	HasNew bool
}

// Complete reports whether both identifiers are present.
func (e Entry) Complete() bool {
	return e.HasOld && e.HasNew
}

// Item is an entry together with its key, as returned by Dataset.Items.
type Item struct {
	Key string
	Entry
}

// Duplicate records a natural key seen more than once in one generation.
// The later identifier (Current) is the one kept.
type Duplicate struct {
	Generation Generation
	Key        string
	Previous   string
	Current    string
}

// Dataset maps natural key to Entry, iterating in insertion order: keys from
// the old dump first, then keys only present in the new dump.
type Dataset struct {
	Kind       types.RecordKind
	Duplicates []Duplicate

	entries *orderedmap.OrderedMap[string, *Entry]
}

// NewDataset returns an empty dataset for kind.
func NewDataset(kind types.RecordKind) *Dataset {
	return &Dataset{
		Kind:    kind,
		entries: orderedmap.NewOrderedMap[string, *Entry](),
	}
}

// setOld assigns a fresh {old: id} entry to key. A repeated key keeps its
// position but loses whatever it held before.
func (d *Dataset) setOld(key, id string) {
	if prev, ok := d.entries.Get(key); ok && prev.HasOld {
		d.Duplicates = append(d.Duplicates, Duplicate{Generation: GenerationOld, Key: key, Previous: prev.Old, Current: id})
	}
	d.entries.Set(key, &Entry{Old: id, HasOld: true})
}

// setNew fills the new identifier of key, appending a new entry when the key
// was absent from the old dump.
func (d *Dataset) setNew(key, id string) {
	e, ok := d.entries.Get(key)
	if !ok {
		d.entries.Set(key, &Entry{New: id, HasNew: true})
		return
	}
	if e.HasNew {
		d.Duplicates = append(d.Duplicates, Duplicate{Generation: GenerationNew, Key: key, Previous: e.New, Current: id})
	}
	e.New = id
	e.HasNew = true
}

// Len returns the number of distinct natural keys.
func (d *Dataset) Len() int {
	return d.entries.Len()
}

// Get returns a copy of the entry for key.
func (d *Dataset) Get(key string) (Entry, bool) {
	e, ok := d.entries.Get(key)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Keys returns the natural keys in dataset order.
func (d *Dataset) Keys() []string {
	return d.entries.Keys()
}

// Items returns copies of all entries in dataset order.
func (d *Dataset) Items() []Item {
	items := make([]Item, 0, d.entries.Len())
	for el := d.entries.Front(); el != nil; el = el.Next() {
		items = append(items, Item{Key: el.Key, Entry: *el.Value})
	}
	return items
}

// Each calls fn for every entry in dataset order until fn returns false.
func (d *Dataset) Each(fn func(key string, e Entry) bool) {
	for el := d.entries.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, *el.Value) {
			return
		}
	}
}

// CompleteCount returns the number of entries with both identifiers.
func (d *Dataset) CompleteCount() int {
	n := 0
	d.Each(func(_ string, e Entry) bool {
		if e.Complete() {
			n++
		}
		return true
	})
	return n
}

// IncompleteCount returns the number of entries missing an identifier.
func (d *Dataset) IncompleteCount() int {
	return d.Len() - d.CompleteCount()
}
