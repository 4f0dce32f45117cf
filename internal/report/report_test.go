package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goalias/internal/reconcile"
	"github.com/dbsmedya/goalias/internal/types"
)

func TestHeader(t *testing.T) {
	assert.Equal(t, "IDs of all teams", Header(types.OrganizationalUnit))
	assert.Equal(t, "IDs of all users", Header(types.User))
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		entry reconcile.Entry
		want  string
	}{
		{
			name:  "complete",
			key:   "alpha",
			entry: reconcile.Entry{Old: "1", New: "42", HasOld: true, HasNew: true},
			want:  "  1 =>     42 | alpha",
		},
		{
			name:  "missing new",
			key:   "beta",
			entry: reconcile.Entry{Old: "2", HasOld: true},
			want:  "  2 =>        | beta",
		},
		{
			name:  "missing old",
			key:   "c@example.com",
			entry: reconcile.Entry{New: "1234", HasNew: true},
			want:  "    =>   1234 | c@example.com",
		},
		{
			name:  "wider than the column",
			key:   "wide",
			entry: reconcile.Entry{Old: "12345", New: "12345678", HasOld: true, HasNew: true},
			want:  "12345 => 12345678 | wide",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEntry(tt.key, tt.entry))
		})
	}
}

func TestReport_CompleteEntryHasNoWarning(t *testing.T) {
	ds := reconcile.Reconcile(types.OrganizationalUnit,
		[]types.ParsedEntry{{ID: "1", Key: "alpha"}},
		[]types.ParsedEntry{{ID: "42", Key: "alpha"}},
	)

	lines := Report(ds)
	require.Len(t, lines, 1)
	assert.Equal(t, Line{Kind: LineNormal, Text: "  1 =>     42 | alpha"}, lines[0])
}

func TestReport_IncompleteEntryIsFlagged(t *testing.T) {
	ds := reconcile.Reconcile(types.OrganizationalUnit,
		[]types.ParsedEntry{{ID: "1", Key: "alpha"}, {ID: "2", Key: "beta"}},
		[]types.ParsedEntry{{ID: "42", Key: "alpha"}, {ID: "43", Key: "delta"}},
	)

	lines := Report(ds)
	assert.Equal(t, []string{
		"  1 =>     42 | alpha",
		WarningText,
		"  2 =>        | beta",
		WarningText,
		"    =>     43 | delta",
	}, Texts(lines))
	assert.Equal(t, LineWarning, lines[1].Kind)
	assert.Equal(t, LineNormal, lines[2].Kind)
}

// Warnings appear exactly before incomplete entries.
func TestReport_WarningsMatchIncompleteEntries(t *testing.T) {
	ds := reconcile.Reconcile(types.User,
		[]types.ParsedEntry{{ID: "1", Key: "a"}, {ID: "2", Key: "b"}, {ID: "3", Key: "c"}},
		[]types.ParsedEntry{{ID: "10", Key: "a"}, {ID: "30", Key: "c"}, {ID: "40", Key: "d"}, {ID: "50", Key: "e"}},
	)

	lines := Report(ds)
	warnings := 0
	for i, l := range lines {
		if l.Kind != LineWarning {
			continue
		}
		warnings++
		require.Less(t, i+1, len(lines))
		assert.Equal(t, LineNormal, lines[i+1].Kind)
	}
	assert.Equal(t, ds.IncompleteCount(), warnings)
	assert.Equal(t, ds.Len()+ds.IncompleteCount(), len(lines))
}

func TestReport_DoesNotMutate(t *testing.T) {
	ds := reconcile.Reconcile(types.User,
		[]types.ParsedEntry{{ID: "1", Key: "a"}},
		[]types.ParsedEntry{{ID: "2", Key: "b"}},
	)
	before := ds.Items()
	_ = Report(ds)
	assert.Equal(t, before, ds.Items())
}

func TestReport_Empty(t *testing.T) {
	assert.Empty(t, Report(reconcile.NewDataset(types.User)))
}
