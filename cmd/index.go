package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/icd11map/pkg/mapping"
)

// IndexStats describes one loaded mapping index.
type IndexStats struct {
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
	Keys  int    `json:"keys" yaml:"keys"`
	Pairs int    `json:"pairs" yaml:"pairs"`
}

// NewIndexCommand creates the 'index' command with its subcommands.
func NewIndexCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect the mapping tables",
	}
	cmd.AddCommand(newIndexStatsCommand(deps))
	return cmd
}

func newIndexStatsCommand(deps *CommandDeps) *cobra.Command {
	flags := &mappingFlags{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Load both mapping tables and print their sizes",
		Long: `Load both mapping tables and print the number of distinct keys and
key/value pairs in each. Fails the same way enrich does when a table is
missing or lacks a required column.

Example:
  icd11map index stats --mondo-icd11 data/mondo_icd11_mappings.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexStats(cmd, deps, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runIndexStats(cmd *cobra.Command, deps *CommandDeps, flags *mappingFlags) error {
	cfg, err := deps.resolveConfig()
	if err != nil {
		return err
	}
	enc, err := flags.inputEncoding(cfg)
	if err != nil {
		return err
	}

	paths := flags.paths(cfg)
	indexes, err := mapping.Load(cmd.Context(), paths, mapping.LoadOptions{Encoding: enc, Logger: deps.logger()})
	if err != nil {
		return err
	}

	stats := []IndexStats{
		{Name: indexes.MondoToICD11.Name(), Path: paths.MondoICD11, Keys: indexes.MondoToICD11.Len(), Pairs: indexes.MondoToICD11.Pairs()},
		{Name: indexes.ICD10ToMondo.Name(), Path: paths.ICD10Mondo, Keys: indexes.ICD10ToMondo.Len(), Pairs: indexes.ICD10ToMondo.Pairs()},
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, cfg.OutputFormat, stats); done {
		return err
	}

	fmt.Fprintf(out, "%-14s %8s %8s  %s\n", "INDEX", "KEYS", "PAIRS", "PATH")
	for _, s := range stats {
		fmt.Fprintf(out, "%-14s %8d %8d  %s\n", s.Name, s.Keys, s.Pairs, s.Path)
	}
	return nil
}
