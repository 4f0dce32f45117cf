// Package config provides configuration structures and loading for goalias.
package config

import (
	"time"
	_ "time/tzdata" // default timezone must resolve on hosts without zoneinfo

	"github.com/dbsmedya/goalias/internal/types"
)

// Config represents the complete application configuration.
type Config struct {
	Dumps        DumpsConfig        `yaml:"dumps" mapstructure:"dumps"`
	S3           S3Config           `yaml:"s3" mapstructure:"s3"`
	Kinds        KindsConfig        `yaml:"kinds" mapstructure:"kinds"`
	Segment      SegmentConfig      `yaml:"segment" mapstructure:"segment"`
	Processing   ProcessingConfig   `yaml:"processing" mapstructure:"processing"`
	Verification VerificationConfig `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics" mapstructure:"metrics"`
}

// DumpsConfig holds the paths of the two dump generations.
type DumpsConfig struct {
	Old string `yaml:"old" mapstructure:"old"` // dump taken before the migration
	New string `yaml:"new" mapstructure:"new"` // dump taken after the migration
}

// S3Config is used for dump locations of the form s3://bucket/key.
// Credentials come from the default AWS chain.
type S3Config struct {
	Region    string `yaml:"region" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"` // optional, e.g. MinIO
	PathStyle bool   `yaml:"path_style" mapstructure:"path_style"`
}

// KindsConfig binds each record kind to a dump table.
type KindsConfig struct {
	Teams TableConfig `yaml:"teams" mapstructure:"teams"`
	Users TableConfig `yaml:"users" mapstructure:"users"`
}

// TableConfig describes where the rows of one record kind live.
type TableConfig struct {
	Table    string `yaml:"table" mapstructure:"table"`
	KeyField int    `yaml:"key_field" mapstructure:"key_field"` // zero-based tuple index of the natural key
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
}

// SegmentConfig configures the aliasing API client.
type SegmentConfig struct {
	WriteKey     string        `yaml:"write_key" mapstructure:"write_key"`
	Endpoint     string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// ProcessingConfig controls parsing behaviour.
type ProcessingConfig struct {
	MalformedRows string `yaml:"malformed_rows" mapstructure:"malformed_rows"` // abort or skip
	Timezone      string `yaml:"timezone" mapstructure:"timezone"`
}

// VerificationConfig represents dataset verification settings.
type VerificationConfig struct {
	Method string `yaml:"method" mapstructure:"method"` // "count", "sha256" or "skip"
	Strict bool   `yaml:"strict" mapstructure:"strict"` // abort convert when verification reports issues
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// MetricsConfig controls the Prometheus textfile written after convert.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"` // empty disables
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		S3: S3Config{
			Region: "us-east-1",
		},
		Kinds: KindsConfig{
			Teams: TableConfig{
				Table:    types.OrganizationalUnit.DefaultTable(),
				KeyField: types.OrganizationalUnit.DefaultKeyField(),
				Enabled:  true,
			},
			Users: TableConfig{
				Table:    types.User.DefaultTable(),
				KeyField: types.User.DefaultKeyField(),
				Enabled:  true,
			},
		},
		Segment: SegmentConfig{
			Endpoint:     "https://api.segment.io",
			Timeout:      10 * time.Second,
			MaxRetries:   3,
			RetryBackoff: time.Second,
		},
		Processing: ProcessingConfig{
			MalformedRows: "abort",
			Timezone:      "Europe/Berlin",
		},
		Verification: VerificationConfig{
			Method: "count",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Table returns the table binding for a record kind.
func (c *Config) Table(kind types.RecordKind) TableConfig {
	switch kind {
	case types.OrganizationalUnit:
		return c.Kinds.Teams
	case types.User:
		return c.Kinds.Users
	default:
		return TableConfig{}
	}
}

// EnabledKinds returns the enabled record kinds in run order.
func (c *Config) EnabledKinds() []types.RecordKind {
	kinds := make([]types.RecordKind, 0, 2)
	for _, k := range types.AllRecordKinds() {
		if c.Table(k).Enabled {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Location resolves the configured timezone. An empty name means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Processing.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Processing.Timezone)
}
