package types

// ParsedEntry is one (identifier, natural key) pair read from a dump row.
type ParsedEntry struct {
	ID  string // digits, as written in the dump
	Key string // slug or email
}
