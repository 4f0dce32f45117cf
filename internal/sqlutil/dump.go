// Package sqlutil knows the textual layout mysqldump uses around table data.
package sqlutil

import (
	"regexp"
	"strings"
)

// ValuesKeyword separates the INSERT prefix from the row tuples.
const ValuesKeyword = "VALUES"

// QuoteIdentifier quotes a MySQL identifier with backticks, doubling any
// embedded backtick.
// Example: "teams" -> "`teams`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier reports whether name is a plain table name
// (alphanumerics and underscores only).
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// LockTablesMarker returns the statement mysqldump writes right before a
// table's data block.
// Example: "teams" -> "LOCK TABLES `teams` WRITE;"
func LockTablesMarker(table string) string {
	return "LOCK TABLES " + QuoteIdentifier(table) + " WRITE;"
}

// EnableKeysMarker returns the versioned comment mysqldump writes right after
// a table's INSERT statements.
// Example: "teams" -> "/*!40000 ALTER TABLE `teams` ENABLE KEYS */;"
func EnableKeysMarker(table string) string {
	return "/*!40000 ALTER TABLE " + QuoteIdentifier(table) + " ENABLE KEYS */;"
}
