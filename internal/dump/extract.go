// Package dump pulls (identifier, natural key) pairs out of mysqldump text.
//
// The layout handled is a mysqldump-style block with one tuple per line:
//
//	LOCK TABLES `teams` WRITE;
//	/*!40000 ALTER TABLE `teams` DISABLE KEYS */;
//
//	INSERT INTO `teams` (`id`, `name`, `slug`, ...)
//	VALUES
//		(1,'x','alpha',...),
//		(2,'y','beta',...);
//
//	/*!40000 ALTER TABLE `teams` ENABLE KEYS */;
//
// This is not a SQL parser. Rows are split on the two-character sequence
// ,' so a value containing it shifts the field indices of its row.
package dump

import (
	"fmt"
	"os"
	"strings"

	"github.com/dbsmedya/goalias/internal/sqlutil"
)

// ExtractSegment returns the row tuples of table: the text after
// `LOCK TABLES `table` WRITE;`, before the table's ENABLE KEYS comment, with
// everything up to and including the first VALUES keyword removed.
// A bracketed block without VALUES is an empty table and yields "".
func ExtractSegment(dumpText, table string) (string, error) {
	start := sqlutil.LockTablesMarker(table)
	_, rest, found := strings.Cut(dumpText, start)
	if !found {
		return "", &FormatError{Table: table, Marker: start}
	}

	end := sqlutil.EnableKeysMarker(table)
	block, _, found := strings.Cut(rest, end)
	if !found {
		return "", &FormatError{Table: table, Marker: end}
	}

	_, segment, found := strings.Cut(block, sqlutil.ValuesKeyword)
	if !found {
		return "", nil
	}

	return segment, nil
}

// HasTable reports whether both markers of table are present.
func HasTable(dumpText, table string) bool {
	_, err := ExtractSegment(dumpText, table)
	return err == nil
}

// LoadFile reads a dump from disk.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read dump %s: %w", path, err)
	}
	return string(data), nil
}
