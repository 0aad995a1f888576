// Package cmd provides CLI commands for the icd11map tool.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/icd11map/config"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
	"github.com/otherjamesbrown/icd11map/pkg/mapping"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// CommandDeps holds the dependencies shared by the mapping commands.
type CommandDeps struct {
	Config     *config.CLIConfig
	LoadConfig func() (*config.CLIConfig, error)
	Logger     logging.Logger
}

// DefaultDeps returns the default dependencies for production use.
func DefaultDeps() *CommandDeps {
	return &CommandDeps{
		LoadConfig: func() (*config.CLIConfig, error) { return config.LoadConfig("") },
	}
}

func (d *CommandDeps) resolveConfig() (*config.CLIConfig, error) {
	if d.Config != nil {
		return d.Config, nil
	}
	if d.LoadConfig == nil {
		return config.DefaultConfig(), nil
	}
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func (d *CommandDeps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NewNopLogger()
}

// mappingFlags are the flags that locate the two mapping tables.
type mappingFlags struct {
	mondoICD11 string
	icd10Mondo string
	encoding   string
}

func (f *mappingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mondoICD11, "mondo-icd11", "", "MONDO->ICD11 mappings TSV (default: <data_dir>/mondo_icd11_mappings.tsv)")
	cmd.Flags().StringVar(&f.icd10Mondo, "mondo-icd10", "", "ICD10->MONDO mappings TSV (default: <data_dir>/icd10_mondo_mappings.tsv)")
	cmd.Flags().StringVar(&f.encoding, "input-encoding", "", "text encoding of the TSV inputs: utf-8, latin1, windows-1252")
}

// paths resolves the mapping table paths, flags overriding cfg.
func (f *mappingFlags) paths(cfg *config.CLIConfig) mapping.Paths {
	p := mapping.Paths{
		MondoICD11: cfg.MondoICD11Path(),
		ICD10Mondo: cfg.ICD10MondoPath(),
	}
	if f.mondoICD11 != "" {
		p.MondoICD11 = f.mondoICD11
	}
	if f.icd10Mondo != "" {
		p.ICD10Mondo = f.icd10Mondo
	}
	return p
}

// inputEncoding resolves the encoding, the flag overriding cfg.
func (f *mappingFlags) inputEncoding(cfg *config.CLIConfig) (tsv.Encoding, error) {
	name := cfg.InputEncoding
	if f.encoding != "" {
		name = f.encoding
	}
	return tsv.ParseEncoding(name)
}

// writeStructured renders v as JSON or YAML. It reports false for text
// output, which callers render themselves.
func writeStructured(w io.Writer, format config.OutputFormat, v interface{}) (bool, error) {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}
