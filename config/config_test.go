package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
)

// TestDefaultConfig verifies default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %v, want data", cfg.DataDir)
	}
	if cfg.CurieColumn != "CURIE" {
		t.Errorf("CurieColumn = %v, want CURIE", cfg.CurieColumn)
	}
	if cfg.OutputColumn != "ICD11_mappings" {
		t.Errorf("OutputColumn = %v, want ICD11_mappings", cfg.OutputColumn)
	}
	if cfg.OutputFormat != OutputFormatText {
		t.Errorf("OutputFormat = %v, want text", cfg.OutputFormat)
	}
	if cfg.Debug {
		t.Error("Debug should be false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestMappingPaths verifies mapping tables default into data_dir.
func TestMappingPaths(t *testing.T) {
	cfg := DefaultConfig()

	if got, want := cfg.MondoICD11Path(), filepath.Join("data", "mondo_icd11_mappings.tsv"); got != want {
		t.Errorf("MondoICD11Path() = %v, want %v", got, want)
	}
	if got, want := cfg.ICD10MondoPath(), filepath.Join("data", "icd10_mondo_mappings.tsv"); got != want {
		t.Errorf("ICD10MondoPath() = %v, want %v", got, want)
	}

	cfg.DataDir = "/srv/mondo"
	if got, want := cfg.MondoICD11Path(), "/srv/mondo/mondo_icd11_mappings.tsv"; got != want {
		t.Errorf("MondoICD11Path() = %v, want %v", got, want)
	}

	cfg.ICD10Mondo = "/elsewhere/icd10.tsv"
	if got := cfg.ICD10MondoPath(); got != "/elsewhere/icd10.tsv" {
		t.Errorf("ICD10MondoPath() = %v, want explicit path", got)
	}
}

// TestOutputFormat_IsValid verifies output format validation.
func TestOutputFormat_IsValid(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{OutputFormatText, true},
		{OutputFormatJSON, true},
		{OutputFormatYAML, true},
		{"invalid", false},
		{"", false},
		{"JSON", false}, // Case sensitive
	}

	for _, tc := range tests {
		if got := tc.format.IsValid(); got != tc.valid {
			t.Errorf("OutputFormat(%q).IsValid() = %v, want %v", tc.format, got, tc.valid)
		}
	}
}

// TestValidate verifies configuration validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr string
	}{
		{"valid", func(*CLIConfig) {}, ""},
		{"empty data dir", func(c *CLIConfig) { c.DataDir = "" }, "data_dir"},
		{"empty curie column", func(c *CLIConfig) { c.CurieColumn = "" }, "curie_column"},
		{"empty output column", func(c *CLIConfig) { c.OutputColumn = "" }, "output_column"},
		{"same columns", func(c *CLIConfig) { c.OutputColumn = c.CurieColumn }, "must differ"},
		{"bad encoding", func(c *CLIConfig) { c.InputEncoding = "ebcdic" }, "input_encoding"},
		{"latin1 encoding", func(c *CLIConfig) { c.InputEncoding = "latin1" }, ""},
		{"bad output format", func(c *CLIConfig) { c.OutputFormat = "xml" }, "output_format"},
		{"bad log level", func(c *CLIConfig) { c.LogLevel = "trace" }, "log_level"},
		{"bad log format", func(c *CLIConfig) { c.LogFormat = "pretty" }, "log_format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
			if !mapperrors.IsValidation(err) {
				t.Errorf("Validate() = %v, want a validation error", err)
			}
		})
	}
}

// TestLoadConfig_DefaultFileMissing verifies defaults when no file exists.
func TestLoadConfig_DefaultFileMissing(t *testing.T) {
	t.Setenv("ICD11MAP_CONFIG_DIR", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CurieColumn != DefaultCurieColumn {
		t.Errorf("CurieColumn = %v, want default", cfg.CurieColumn)
	}
}

// TestLoadConfig_YAML verifies loading from the default YAML file.
func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ICD11MAP_CONFIG_DIR", dir)

	content := `data_dir: /srv/data
curie_column: id
output_format: json
debug: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DataDir != "/srv/data" {
		t.Errorf("DataDir = %v, want /srv/data", cfg.DataDir)
	}
	if cfg.CurieColumn != "id" {
		t.Errorf("CurieColumn = %v, want id", cfg.CurieColumn)
	}
	if cfg.OutputColumn != DefaultOutputColumn {
		t.Errorf("OutputColumn = %v, want default", cfg.OutputColumn)
	}
	if cfg.OutputFormat != OutputFormatJSON {
		t.Errorf("OutputFormat = %v, want json", cfg.OutputFormat)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.EffectiveLogLevel() != "debug" {
		t.Errorf("EffectiveLogLevel() = %v, want debug", cfg.EffectiveLogLevel())
	}
}

// TestLoadConfig_TOML verifies loading an explicit TOML file.
func TestLoadConfig_TOML(t *testing.T) {
	t.Setenv("ICD11MAP_CONFIG_DIR", t.TempDir())
	path := filepath.Join(t.TempDir(), "icd11map.toml")

	content := `data_dir = "/srv/toml"
mondo_icd11 = "/srv/custom.tsv"
input_encoding = "windows-1252"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DataDir != "/srv/toml" {
		t.Errorf("DataDir = %v, want /srv/toml", cfg.DataDir)
	}
	if cfg.MondoICD11Path() != "/srv/custom.tsv" {
		t.Errorf("MondoICD11Path() = %v, want /srv/custom.tsv", cfg.MondoICD11Path())
	}
	if cfg.InputEncoding != "windows-1252" {
		t.Errorf("InputEncoding = %v, want windows-1252", cfg.InputEncoding)
	}
}

// TestLoadConfig_ExplicitMissing verifies an explicit path must exist.
func TestLoadConfig_ExplicitMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing explicit file")
	}
}

// TestLoadConfig_InvalidFile verifies parse and validation errors surface.
func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("data_dir: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("LoadConfig() should fail for malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("output_format: xml\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(invalid)
	if err == nil || !strings.Contains(err.Error(), "output_format") {
		t.Errorf("LoadConfig() = %v, want output_format error", err)
	}
}

// TestLoadFromEnv verifies environment variables override the file.
func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ICD11MAP_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("curie_column: id\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ICD11MAP_CURIE_COLUMN", "identifier")
	t.Setenv("ICD11MAP_ICD10_MONDO", "/env/icd10.tsv")
	t.Setenv("ICD11MAP_OUTPUT_FORMAT", "yaml")
	t.Setenv("ICD11MAP_METRICS_FILE", "/var/lib/node_exporter/icd11map.prom")
	t.Setenv("ICD11MAP_DEBUG", "1")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CurieColumn != "identifier" {
		t.Errorf("CurieColumn = %v, want identifier", cfg.CurieColumn)
	}
	if cfg.ICD10MondoPath() != "/env/icd10.tsv" {
		t.Errorf("ICD10MondoPath() = %v, want /env/icd10.tsv", cfg.ICD10MondoPath())
	}
	if cfg.OutputFormat != OutputFormatYAML {
		t.Errorf("OutputFormat = %v, want yaml", cfg.OutputFormat)
	}
	if cfg.MetricsFile == "" {
		t.Error("MetricsFile should be set from env")
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

// TestSaveConfig verifies saved configs load back.
func TestSaveConfig(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("ICD11MAP_CONFIG_DIR", dir)

			cfg := DefaultConfig()
			cfg.CurieColumn = "term_id"
			cfg.MetricsFile = "/tmp/m.prom"
			path := filepath.Join(dir, "nested", name)
			if err := SaveConfigTo(cfg, path); err != nil {
				t.Fatalf("SaveConfigTo() error = %v", err)
			}

			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if loaded.CurieColumn != "term_id" {
				t.Errorf("CurieColumn = %v, want term_id", loaded.CurieColumn)
			}
			if loaded.MetricsFile != "/tmp/m.prom" {
				t.Errorf("MetricsFile = %v, want /tmp/m.prom", loaded.MetricsFile)
			}
		})
	}
}

// TestSaveConfig_DefaultPath verifies SaveConfig writes into the config dir.
func TestSaveConfig_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ICD11MAP_CONFIG_DIR", dir)

	if err := SaveConfig(DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "curie_column: CURIE") {
		t.Errorf("saved config missing curie_column:\n%s", data)
	}
}

// TestExpandPath verifies ~ expansion.
func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got, want := ExpandPath("~/data"), filepath.Join(home, "data"); got != want {
		t.Errorf("ExpandPath() = %v, want %v", got, want)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath() = %v, want /abs", got)
	}
}
