package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/mapping"
	"github.com/otherjamesbrown/icd11map/pkg/resolver"
)

type resolveFlags struct {
	mappingFlags
	failUnmapped bool
}

// NewResolveCommand creates the 'resolve' command.
func NewResolveCommand(deps *CommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultDeps()
	}
	flags := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve <curie>...",
		Short: "Resolve CURIEs to ICD-11 codes",
		Long: `Resolve one or more CURIEs to ICD-11 codes without touching a TSV file.

Useful for checking why a row did or did not map. ICD-10 codes also list the
MONDO terms they were resolved through.

Examples:
  icd11map resolve MONDO:0005015
  icd11map resolve ICD10CM:E11 ICD10CM:I10 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, deps, flags, args)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.failUnmapped, "fail-unmapped", false, "exit non-zero when any CURIE has no ICD-11 codes")
	return cmd
}

func runResolve(cmd *cobra.Command, deps *CommandDeps, flags *resolveFlags, curies []string) error {
	cfg, err := deps.resolveConfig()
	if err != nil {
		return err
	}
	enc, err := flags.inputEncoding(cfg)
	if err != nil {
		return err
	}

	indexes, err := mapping.Load(cmd.Context(), flags.paths(cfg), mapping.LoadOptions{Encoding: enc, Logger: deps.logger()})
	if err != nil {
		return err
	}

	r := resolver.New(indexes)
	results := make([]resolver.Result, 0, len(curies))
	for _, c := range curies {
		results = append(results, r.Explain(c))
	}

	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, cfg.OutputFormat, results); done {
		if err != nil {
			return err
		}
		return checkUnmapped(flags.failUnmapped, results)
	}

	for _, res := range results {
		codes := strings.Join(res.Codes, ", ")
		if codes == "" {
			codes = "-"
		}
		fmt.Fprintf(out, "%s\t%s\t%s", res.CURIE, res.Kind, codes)
		if len(res.Via) > 0 {
			fmt.Fprintf(out, "\tvia %s", strings.Join(res.Via, ", "))
		}
		fmt.Fprintln(out)
	}
	return checkUnmapped(flags.failUnmapped, results)
}

func checkUnmapped(fail bool, results []resolver.Result) error {
	if !fail {
		return nil
	}
	var unmapped []string
	for _, res := range results {
		if !res.Found() {
			unmapped = append(unmapped, res.CURIE)
		}
	}
	if len(unmapped) > 0 {
		return fmt.Errorf("%w: no ICD-11 codes for %s", mapperrors.ErrNotFound, strings.Join(unmapped, ", "))
	}
	return nil
}
