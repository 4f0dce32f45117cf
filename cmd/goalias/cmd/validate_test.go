package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandStructure(t *testing.T) {
	assert.NotNil(t, validateCmd)
	assert.Equal(t, "validate", validateCmd.Name())
	assert.NotEmpty(t, validateCmd.Short)
	assert.NotEmpty(t, validateCmd.Long)
	assert.NotNil(t, validateCmd.RunE)
}

func TestRunValidate(t *testing.T) {
	w := newWorkspace(t, fixtureOld, fixtureNew, "")

	require.NoError(t, runValidate(validateCmd, w.args()))

	out := w.out.String()
	assert.Contains(t, out, "✓ Configuration OK")
	assert.Contains(t, out, "No Segment write key configured")
	assert.Contains(t, out, "--- old dump: "+w.oldPath)
	assert.Contains(t, out, "--- new dump: "+w.newPath)
	assert.Contains(t, out, "✓ Validation passed")
}

func TestRunValidate_MissingTable(t *testing.T) {
	w := newWorkspace(t, fixtureOld, tableBlock("teams"), "")

	err := runValidate(validateCmd, w.args())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, w.out.String(), "❌ users: ")
	assert.NotContains(t, w.out.String(), "❌ teams: ")
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	w := newWorkspace(t, fixtureOld, fixtureNew, "kinds:\n  teams:\n    key_field: 0\n")

	err := runValidate(validateCmd, w.args())
	require.Error(t, err)
	assert.Contains(t, w.out.String(), "❌ kinds.teams.key_field")
}

func TestRunValidate_UnreadableDump(t *testing.T) {
	w := newWorkspace(t, fixtureOld, fixtureNew, "")

	err := runValidate(validateCmd, []string{w.oldPath, w.dir + "/nope.sql"})
	require.Error(t, err)
	assert.Contains(t, w.out.String(), "new dump")
}
