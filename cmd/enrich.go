package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/icd11map/pkg/enrich"
	"github.com/otherjamesbrown/icd11map/pkg/observability"
	"github.com/otherjamesbrown/icd11map/pkg/resolver"
)

type enrichFlags struct {
	mappingFlags
	output       string
	curieColumn  string
	outputColumn string
	metricsFile  string
}

// NewEnrichCommand creates the 'enrich' command.
func NewEnrichCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	flags := &enrichFlags{}

	cmd := &cobra.Command{
		Use:   "enrich <input_tsv>",
		Short: "Add ICD-11 mappings to a TSV file",
		Long: `Add an ICD-11 mappings column to a TSV file.

Each row's CURIE is resolved through the MONDO cross-reference tables:
  MONDO:...   ICD-11 codes recorded on the MONDO term
  ICD10...    ICD-11 codes of every MONDO term citing the ICD-10 code
  other       no codes

Codes are joined with ", ". Rows without codes get an empty cell.
The mapping tables are produced with ROBOT:
  robot query -i mondo.owl -q sparql/extract_mondo_icd11.sparql data/mondo_icd11_mappings.tsv
  robot query -i mondo.owl -q sparql/extract_icd10_mondo.sparql data/icd10_mondo_mappings.tsv

Files ending in .gz or .zst are read and written compressed.

Examples:
  icd11map enrich terms.tsv
  icd11map enrich terms.tsv -o out/terms_icd11.tsv --curie-column id
  icd11map enrich terms.tsv.gz --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, deps, flags, args[0])
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output TSV file (default: <data_dir>/<input>_with_icd11.tsv)")
	cmd.Flags().StringVar(&flags.curieColumn, "curie-column", "", `column containing CURIEs (default "CURIE")`)
	cmd.Flags().StringVar(&flags.outputColumn, "output-column", "", `column receiving the mappings (default "ICD11_mappings")`)
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")

	return cmd
}

func runEnrich(cmd *cobra.Command, deps *CommandDeps, flags *enrichFlags, input string) error {
	cfg, err := deps.resolveConfig()
	if err != nil {
		return err
	}
	enc, err := flags.inputEncoding(cfg)
	if err != nil {
		return err
	}

	rc := enrich.RunConfig{
		Input:    input,
		Output:   flags.output,
		Mappings: flags.paths(cfg),
		Options: enrich.Options{
			CurieColumn:  firstNonEmpty(flags.curieColumn, cfg.CurieColumn),
			OutputColumn: firstNonEmpty(flags.outputColumn, cfg.OutputColumn),
		},
		Encoding:    enc,
		MetricsFile: firstNonEmpty(flags.metricsFile, cfg.MetricsFile),
		Logger:      deps.logger(),
		Tracer:      observability.NewTracer(),
	}
	if rc.Output == "" {
		rc.Output = enrich.DefaultOutputPath(cfg.DataDir, input)
	}

	stats, err := enrich.Run(cmd.Context(), rc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, cfg.OutputFormat, stats); done {
		return err
	}

	fmt.Fprintf(out, "Wrote %s\n", stats.Output)
	fmt.Fprintf(out, "  Rows:           %d\n", stats.Rows)
	fmt.Fprintf(out, "  Rows mapped:    %d\n", stats.RowsMapped)
	fmt.Fprintf(out, "  Total mappings: %d\n", stats.TotalMappings)
	for _, k := range resolver.Kinds() {
		if n := stats.ByKind[k]; n > 0 {
			fmt.Fprintf(out, "  %-15s %d\n", k.String()+":", n)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
