package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOptional behaves like Load but falls back to DefaultConfig when the
// file does not exist. Used for the default --config path, which users
// are not required to create.
func LoadOptional(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		substituteEnvVars(cfg)
		return cfg, nil
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Dumps.Old = expandEnvVar(cfg.Dumps.Old)
	cfg.Dumps.New = expandEnvVar(cfg.Dumps.New)
	cfg.S3.Endpoint = expandEnvVar(cfg.S3.Endpoint)

	cfg.Segment.WriteKey = expandEnvVar(cfg.Segment.WriteKey)
	cfg.Segment.Endpoint = expandEnvVar(cfg.Segment.Endpoint)

	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
	cfg.Metrics.Textfile = expandEnvVar(cfg.Metrics.Textfile)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat, writeKey string, skipMalformed bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if writeKey != "" {
		c.Segment.WriteKey = writeKey
	}
	if skipMalformed {
		c.Processing.MalformedRows = "skip"
	}
}

// ResolveDumps returns the dump paths to use, positional arguments taking
// precedence over the config file.
func (c *Config) ResolveDumps(args []string) (oldPath, newPath string, err error) {
	oldPath, newPath = c.Dumps.Old, c.Dumps.New
	if len(args) > 0 {
		oldPath = args[0]
	}
	if len(args) > 1 {
		newPath = args[1]
	}
	if oldPath == "" || newPath == "" {
		return "", "", fmt.Errorf("both the old and the new dump path are required (args or dumps.old/dumps.new)")
	}
	return oldPath, newPath, nil
}
