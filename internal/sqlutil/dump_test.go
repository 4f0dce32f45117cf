package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Simple table name", input: "users", expected: "`users`"},
		{name: "Table with underscore", input: "team_members", expected: "`team_members`"},
		{name: "Empty string", input: "", expected: "``"},
		{name: "Embedded backtick", input: "my`table", expected: "`my``table`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, IsValidIdentifier("teams"))
	assert.True(t, IsValidIdentifier("Users_2019"))
	assert.False(t, IsValidIdentifier(""))
	assert.False(t, IsValidIdentifier("teams; DROP"))
	assert.False(t, IsValidIdentifier("te`ams"))
	assert.False(t, IsValidIdentifier("db.teams"))
}

func TestLockTablesMarker(t *testing.T) {
	assert.Equal(t, "LOCK TABLES `teams` WRITE;", LockTablesMarker("teams"))
	assert.Equal(t, "LOCK TABLES `users` WRITE;", LockTablesMarker("users"))
}

func TestEnableKeysMarker(t *testing.T) {
	assert.Equal(t, "/*!40000 ALTER TABLE `teams` ENABLE KEYS */;", EnableKeysMarker("teams"))
	assert.Equal(t, "/*!40000 ALTER TABLE `users` ENABLE KEYS */;", EnableKeysMarker("users"))
}
