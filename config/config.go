// Package config provides CLI configuration management for the icd11map command-line tool.
// It supports loading configuration from YAML or TOML files, environment variables, and command-line flags.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultDataDir        = "data"
	DefaultMondoICD11File = "mondo_icd11_mappings.tsv"
	DefaultICD10MondoFile = "icd10_mondo_mappings.tsv"
	DefaultCurieColumn    = "CURIE"
	DefaultOutputColumn   = "ICD11_mappings"
	DefaultInputEncoding  = string(tsv.EncodingUTF8)
	DefaultOutputFormat   = OutputFormatText
	DefaultLogLevel       = string(logging.LevelInfo)
	DefaultLogFormat      = string(logging.FormatAuto)
	DefaultConfigDir      = ".icd11map"
	DefaultConfigFile     = "config.yaml"
	EnvPrefix             = "ICD11MAP_"
	envConfigDir          = EnvPrefix + "CONFIG_DIR"
)

// CLIConfig holds the CLI configuration settings.
type CLIConfig struct {
	// DataDir holds the mapping tables and receives default output files.
	DataDir string `yaml:"data_dir" json:"data_dir" toml:"data_dir"`

	// MondoICD11 is the MONDO to ICD-11 table. Empty means
	// <data_dir>/mondo_icd11_mappings.tsv.
	MondoICD11 string `yaml:"mondo_icd11,omitempty" json:"mondo_icd11,omitempty" toml:"mondo_icd11,omitempty"`

	// ICD10Mondo is the ICD-10 to MONDO table. Empty means
	// <data_dir>/icd10_mondo_mappings.tsv.
	ICD10Mondo string `yaml:"icd10_mondo,omitempty" json:"icd10_mondo,omitempty" toml:"icd10_mondo,omitempty"`

	CurieColumn   string `yaml:"curie_column" json:"curie_column" toml:"curie_column"`
	OutputColumn  string `yaml:"output_column" json:"output_column" toml:"output_column"`
	InputEncoding string `yaml:"input_encoding" json:"input_encoding" toml:"input_encoding"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format" json:"output_format" toml:"output_format"`

	LogLevel  string `yaml:"log_level" json:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format" toml:"log_format"`

	// MetricsFile, when set, receives Prometheus textfile metrics after each enrich run.
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty" toml:"metrics_file,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty" toml:"debug,omitempty"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		DataDir:       DefaultDataDir,
		CurieColumn:   DefaultCurieColumn,
		OutputColumn:  DefaultOutputColumn,
		InputEncoding: DefaultInputEncoding,
		OutputFormat:  DefaultOutputFormat,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// MondoICD11Path returns the effective MONDO to ICD-11 table path.
func (c *CLIConfig) MondoICD11Path() string {
	if c.MondoICD11 != "" {
		return expandPath(c.MondoICD11)
	}
	return filepath.Join(expandPath(c.DataDir), DefaultMondoICD11File)
}

// ICD10MondoPath returns the effective ICD-10 to MONDO table path.
func (c *CLIConfig) ICD10MondoPath() string {
	if c.ICD10Mondo != "" {
		return expandPath(c.ICD10Mondo)
	}
	return filepath.Join(expandPath(c.DataDir), DefaultICD10MondoFile)
}

// EffectiveLogLevel returns the log level, forced to debug when Debug is set.
func (c *CLIConfig) EffectiveLogLevel() logging.Level {
	if c.Debug {
		return logging.LevelDebug
	}
	return logging.Level(c.LogLevel)
}

// ConfigDir returns the configuration directory path.
// Uses $ICD11MAP_CONFIG_DIR if set, otherwise ~/.icd11map
func ConfigDir() (string, error) {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the CLI configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (path if given, else ~/.icd11map/config.yaml or $ICD11MAP_CONFIG_DIR/config.yaml)
// 3. Environment variables (ICD11MAP_DATA_DIR, ICD11MAP_CURIE_COLUMN, ...)
//
// An explicit path must exist; the default file is optional.
func LoadConfig(path string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	} else {
		configPath, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("getting config path: %w", err)
		}
		if _, err := os.Stat(configPath); err == nil {
			if err := loadFromFile(cfg, configPath); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	// Overlay environment variables.
	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// isTOML reports whether path should be parsed as TOML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// loadFromFile overlays the non-empty settings of a YAML or TOML file.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg CLIConfig
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &fileCfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	overlay(cfg, &fileCfg)
	return nil
}

func overlay(cfg, src *CLIConfig) {
	for _, f := range []struct {
		dst *string
		v   string
	}{
		{&cfg.DataDir, src.DataDir},
		{&cfg.MondoICD11, src.MondoICD11},
		{&cfg.ICD10Mondo, src.ICD10Mondo},
		{&cfg.CurieColumn, src.CurieColumn},
		{&cfg.OutputColumn, src.OutputColumn},
		{&cfg.InputEncoding, src.InputEncoding},
		{&cfg.LogLevel, src.LogLevel},
		{&cfg.LogFormat, src.LogFormat},
		{&cfg.MetricsFile, src.MetricsFile},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if src.OutputFormat != "" {
		cfg.OutputFormat = src.OutputFormat
	}
	cfg.Debug = cfg.Debug || src.Debug
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *CLIConfig) {
	env := CLIConfig{
		DataDir:       os.Getenv(EnvPrefix + "DATA_DIR"),
		MondoICD11:    os.Getenv(EnvPrefix + "MONDO_ICD11"),
		ICD10Mondo:    os.Getenv(EnvPrefix + "ICD10_MONDO"),
		CurieColumn:   os.Getenv(EnvPrefix + "CURIE_COLUMN"),
		OutputColumn:  os.Getenv(EnvPrefix + "OUTPUT_COLUMN"),
		InputEncoding: os.Getenv(EnvPrefix + "INPUT_ENCODING"),
		OutputFormat:  OutputFormat(os.Getenv(EnvPrefix + "OUTPUT_FORMAT")),
		LogLevel:      os.Getenv(EnvPrefix + "LOG_LEVEL"),
		LogFormat:     os.Getenv(EnvPrefix + "LOG_FORMAT"),
		MetricsFile:   os.Getenv(EnvPrefix + "METRICS_FILE"),
	}
	if v := os.Getenv(EnvPrefix + "DEBUG"); v == "true" || v == "1" {
		env.Debug = true
	}
	overlay(cfg, &env)
}

// Validate checks that the configuration is valid. Errors match
// errors.ErrValidation.
func (c *CLIConfig) Validate() error {
	if c.DataDir == "" {
		return invalid("data_dir is required")
	}

	if c.CurieColumn == "" {
		return invalid("curie_column is required")
	}

	if c.OutputColumn == "" {
		return invalid("output_column is required")
	}

	if c.CurieColumn == c.OutputColumn {
		return invalid("output_column must differ from curie_column (%q)", c.CurieColumn)
	}

	if _, err := tsv.ParseEncoding(c.InputEncoding); err != nil {
		return invalid("invalid input_encoding: %v", err)
	}

	if !c.OutputFormat.IsValid() {
		return invalid("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	if !logging.Level(c.LogLevel).IsValid() {
		return invalid("invalid log_level: %q (must be debug, info, warn, or error)", c.LogLevel)
	}

	if !logging.Format(c.LogFormat).IsValid() {
		return invalid("invalid log_format: %q (must be auto, console, or json)", c.LogFormat)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", mapperrors.ErrValidation, fmt.Sprintf(format, args...))
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// Marshal renders cfg as YAML, or TOML when toTOML is set.
func Marshal(cfg *CLIConfig, toTOML bool) ([]byte, error) {
	if toTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		return buf.Bytes(), nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// SaveConfig saves the configuration to the default config file.
func SaveConfig(cfg *CLIConfig) error {
	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}
	return SaveConfigTo(cfg, configPath)
}

// SaveConfigTo writes cfg to path, choosing TOML for a .toml extension and
// YAML otherwise.
func SaveConfigTo(cfg *CLIConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := Marshal(cfg, isTOML(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return original if home dir lookup fails.
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	return expandPath(path)
}
