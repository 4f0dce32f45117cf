// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import "fmt"

// RecordKind identifies the category of entity being reconciled.
type RecordKind int

const (
	// OrganizationalUnit records live in the teams table and are keyed by slug.
	OrganizationalUnit RecordKind = iota
	// User records live in the users table and are keyed by email.
	User
)

// AllRecordKinds returns every record kind in run order.
func AllRecordKinds() []RecordKind {
	return []RecordKind{OrganizationalUnit, User}
}

// String returns the config/CLI name of the kind.
func (k RecordKind) String() string {
	switch k {
	case OrganizationalUnit:
		return "organizational_unit"
	case User:
		return "user"
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// Plural returns the human label used in console headers ("teams", "users").
func (k RecordKind) Plural() string {
	switch k {
	case OrganizationalUnit:
		return "teams"
	case User:
		return "users"
	default:
		return k.String()
	}
}

// DefaultTable returns the dump table holding rows of this kind.
func (k RecordKind) DefaultTable() string {
	switch k {
	case OrganizationalUnit:
		return "teams"
	case User:
		return "users"
	default:
		return ""
	}
}

// DefaultKeyField returns the zero-based tuple index of the natural key
// (slug for teams, email for users).
func (k RecordKind) DefaultKeyField() int {
	return 2
}

// ParseRecordKind is the inverse of String. The table names are accepted as aliases.
func ParseRecordKind(s string) (RecordKind, error) {
	switch s {
	case "organizational_unit", "teams", "team":
		return OrganizationalUnit, nil
	case "user", "users":
		return User, nil
	default:
		return 0, fmt.Errorf("unknown record kind %q", s)
	}
}
