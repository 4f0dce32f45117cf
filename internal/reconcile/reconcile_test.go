package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goalias/internal/types"
)

func entries(pairs ...string) []types.ParsedEntry {
	out := make([]types.ParsedEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.ParsedEntry{ID: pairs[i], Key: pairs[i+1]})
	}
	return out
}

func TestReconcile_CompleteEntry(t *testing.T) {
	ds := Reconcile(types.OrganizationalUnit, entries("1", "alpha"), entries("42", "alpha"))

	require.Equal(t, 1, ds.Len())
	e, ok := ds.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, Entry{Old: "1", New: "42", HasOld: true, HasNew: true}, e)
	assert.True(t, e.Complete())
	assert.Equal(t, types.OrganizationalUnit, ds.Kind)
}

func TestReconcile_KeyOnlyInOld(t *testing.T) {
	ds := Reconcile(types.OrganizationalUnit, entries("1", "alpha", "2", "beta"), entries("42", "alpha"))

	e, ok := ds.Get("beta")
	require.True(t, ok)
	assert.Equal(t, "2", e.Old)
	assert.False(t, e.HasNew)
	assert.Equal(t, "", e.New)
	assert.False(t, e.Complete())
}

func TestReconcile_KeyOnlyInNew(t *testing.T) {
	ds := Reconcile(types.User, entries("1", "a@x.io"), entries("42", "a@x.io", "43", "b@x.io"))

	e, ok := ds.Get("b@x.io")
	require.True(t, ok)
	assert.False(t, e.HasOld)
	assert.Equal(t, "43", e.New)
	assert.False(t, e.Complete())
}

func TestReconcile_DuplicateInNewLastWins(t *testing.T) {
	ds := Reconcile(types.OrganizationalUnit, entries("5", "gamma"), entries("10", "gamma", "11", "gamma"))

	e, ok := ds.Get("gamma")
	require.True(t, ok)
	assert.Equal(t, "11", e.New)
	assert.Equal(t, "5", e.Old)

	require.Len(t, ds.Duplicates, 1)
	assert.Equal(t, Duplicate{Generation: GenerationNew, Key: "gamma", Previous: "10", Current: "11"}, ds.Duplicates[0])
}

func TestReconcile_DuplicateInNewWithoutOld(t *testing.T) {
	ds := Reconcile(types.OrganizationalUnit, nil, entries("10", "gamma", "11", "gamma"))

	e, _ := ds.Get("gamma")
	assert.Equal(t, "11", e.New)
	assert.False(t, e.HasOld)
	assert.Len(t, ds.Duplicates, 1)
}

func TestReconcile_DuplicateInOldLastWins(t *testing.T) {
	ds := Reconcile(types.User, entries("3", "dup@x.io", "4", "other@x.io", "9", "dup@x.io"), nil)

	e, _ := ds.Get("dup@x.io")
	assert.Equal(t, "9", e.Old)
	// Position of the first occurrence is kept.
	assert.Equal(t, []string{"dup@x.io", "other@x.io"}, ds.Keys())
	require.Len(t, ds.Duplicates, 1)
	assert.Equal(t, GenerationOld, ds.Duplicates[0].Generation)
	assert.Equal(t, "3", ds.Duplicates[0].Previous)
}

func TestReconcile_Order(t *testing.T) {
	ds := Reconcile(types.User,
		entries("1", "c", "2", "a", "3", "b"),
		entries("30", "b", "40", "d", "10", "c"),
	)

	// Old keys in old order, then new-only keys in new order.
	assert.Equal(t, []string{"c", "a", "b", "d"}, ds.Keys())

	items := ds.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "c", items[0].Key)
	assert.Equal(t, "10", items[0].New)
	assert.Equal(t, "d", items[3].Key)
	assert.False(t, items[3].HasOld)
}

func TestReconcile_Empty(t *testing.T) {
	ds := Reconcile(types.User, nil, nil)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Keys())
	assert.Empty(t, ds.Items())
	assert.Equal(t, 0, ds.CompleteCount())
	assert.Equal(t, 0, ds.IncompleteCount())
}

func TestDataset_Counts(t *testing.T) {
	ds := Reconcile(types.User,
		entries("1", "a", "2", "b", "3", "c"),
		entries("10", "a", "30", "c", "40", "d"),
	)
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, 2, ds.CompleteCount())
	assert.Equal(t, 2, ds.IncompleteCount())
}

func TestDataset_EachStopsEarly(t *testing.T) {
	ds := Reconcile(types.User, entries("1", "a", "2", "b", "3", "c"), nil)

	var seen []string
	ds.Each(func(key string, _ Entry) bool {
		seen = append(seen, key)
		return len(seen) < 2
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestDataset_GetReturnsCopy(t *testing.T) {
	ds := Reconcile(types.User, entries("1", "a"), entries("2", "a"))

	e, _ := ds.Get("a")
	e.New = "999"

	again, _ := ds.Get("a")
	assert.Equal(t, "2", again.New)

	_, ok := ds.Get("missing")
	assert.False(t, ok)
}

// Every key of either generation appears exactly once, and each side equals
// the last identifier parsed for that key in that generation.
func TestReconcile_OuterJoinProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		var oldEntries, newEntries []types.ParsedEntry
		lastOld := map[string]string{}
		lastNew := map[string]string{}

		oldN, newN := rng.Intn(30), rng.Intn(30)
		for i := 0; i < oldN; i++ {
			key := fmt.Sprintf("k%d", rng.Intn(20))
			id := fmt.Sprintf("%d", rng.Intn(1000))
			oldEntries = append(oldEntries, types.ParsedEntry{ID: id, Key: key})
			lastOld[key] = id
		}
		for i := 0; i < newN; i++ {
			key := fmt.Sprintf("k%d", rng.Intn(20))
			id := fmt.Sprintf("%d", rng.Intn(1000))
			newEntries = append(newEntries, types.ParsedEntry{ID: id, Key: key})
			lastNew[key] = id
		}

		ds := Reconcile(types.User, oldEntries, newEntries)

		union := map[string]bool{}
		for k := range lastOld {
			union[k] = true
		}
		for k := range lastNew {
			union[k] = true
		}
		require.Equal(t, len(union), ds.Len(), "round %d", round)

		for key := range union {
			e, ok := ds.Get(key)
			require.True(t, ok)

			oldID, inOld := lastOld[key]
			newID, inNew := lastNew[key]
			assert.Equal(t, inOld, e.HasOld)
			assert.Equal(t, inNew, e.HasNew)
			assert.Equal(t, oldID, e.Old)
			assert.Equal(t, newID, e.New)
			assert.Equal(t, inOld && inNew, e.Complete())
		}
	}
}
