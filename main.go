// Package main provides the icd11map CLI entry point.
// icd11map adds ICD-11 codes to tables of disease and phenotype terms by
// resolving their CURIEs through MONDO cross-references.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/icd11map/cmd"
	"github.com/otherjamesbrown/icd11map/config"
	"github.com/otherjamesbrown/icd11map/pkg/buildinfo"
	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
)

// Global flags and state.
var (
	cfgFile      string
	outputFormat string
	logFormat    string
	debug        bool

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig

	// deps is shared by the mapping commands and filled in once the
	// configuration and logger exist.
	deps = &cmd.CommandDeps{}
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "icd11map",
	Short: "Add ICD-11 codes to term tables via MONDO cross-references",
	Long: `icd11map resolves MONDO and ICD-10 CURIEs to ICD-11 codes using two
mapping tables extracted from the MONDO ontology with ROBOT, and appends
the codes to TSV files.

COMMON WORKFLOWS:
  Enrich a table:   icd11map enrich terms.tsv
  Check a CURIE:    icd11map resolve MONDO:0005015 ICD10CM:E11
  Check the tables: icd11map index stats

Logs go to stderr; command output goes to stdout. Use --format json or
--format yaml for structured output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if outputFormat != "" {
			cfg.OutputFormat = config.OutputFormat(outputFormat)
		}
		if logFormat != "" {
			cfg.LogFormat = logFormat
		}
		if debug {
			cfg.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := logging.NewLogger(&logging.Config{
			Level:       cfg.EffectiveLogLevel(),
			ServiceName: "icd11map",
			Format:      logging.Format(cfg.LogFormat),
			Output:      c.ErrOrStderr(),
		})
		logging.SetGlobal(logger)

		deps.Config = cfg
		deps.Logger = logger
		return nil
	},
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of icd11map.

Examples:
  icd11map version
  icd11map version --format json`,
	RunE: func(c *cobra.Command, args []string) error {
		info := buildinfo.Get("icd11map")
		out := c.OutOrStdout()

		if config.OutputFormat(outputFormat) == config.OutputFormatJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Fprintf(out, "icd11map version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go:         %s\n", info.GoVersion)
		return nil
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and create the icd11map configuration file.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after file, environment, and flag overrides.`,
	RunE: func(c *cobra.Command, args []string) error {
		out := c.OutOrStdout()
		switch cfg.OutputFormat {
		case config.OutputFormatJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		case config.OutputFormatYAML:
			data, err := config.Marshal(cfg, false)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		configPath := cfgFile
		if configPath == "" {
			configPath, _ = config.ConfigPath()
		}

		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Config file:    %s\n", configPath)
		fmt.Fprintf(out, "  Data dir:       %s\n", cfg.DataDir)
		fmt.Fprintf(out, "  MONDO->ICD11:   %s\n", cfg.MondoICD11Path())
		fmt.Fprintf(out, "  ICD10->MONDO:   %s\n", cfg.ICD10MondoPath())
		fmt.Fprintf(out, "  CURIE column:   %s\n", cfg.CurieColumn)
		fmt.Fprintf(out, "  Output column:  %s\n", cfg.OutputColumn)
		fmt.Fprintf(out, "  Input encoding: %s\n", cfg.InputEncoding)
		fmt.Fprintf(out, "  Output format:  %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "  Log level:      %s\n", cfg.EffectiveLogLevel())
		fmt.Fprintf(out, "  Log format:     %s\n", cfg.LogFormat)
		fmt.Fprintf(out, "  Metrics file:   %s\n", valueOrDefault(cfg.MetricsFile, "(not set)"))
		fmt.Fprintf(out, "  Debug:          %t\n", cfg.Debug)
		return nil
	},
}

var configInitPath string

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a new configuration file with default values if one doesn't exist.

A --path ending in .toml writes TOML; anything else writes YAML.`,
	RunE: func(c *cobra.Command, args []string) error {
		configPath := configInitPath
		if configPath == "" {
			var err error
			configPath, err = config.ConfigPath()
			if err != nil {
				return fmt.Errorf("getting config path: %w", err)
			}
		}

		out := c.OutOrStdout()
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", configPath)
			fmt.Fprintln(out, "Use 'icd11map config show' to view current settings.")
			return nil
		}

		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfigTo(defaultCfg, configPath); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Fprintf(out, "Created configuration file: %s\n", configPath)
		fmt.Fprintln(out, "\nDefault settings:")
		fmt.Fprintf(out, "  Data dir:       %s\n", defaultCfg.DataDir)
		fmt.Fprintf(out, "  CURIE column:   %s\n", defaultCfg.CurieColumn)
		fmt.Fprintf(out, "  Output column:  %s\n", defaultCfg.OutputColumn)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for icd11map.

Bash:
  $ source <(icd11map completion bash)

Zsh:
  $ icd11map completion zsh > "${fpath[1]}/_icd11map"

Fish:
  $ icd11map completion fish | source`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		out := c.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// printError writes a fatal error and, for schema errors, how to fix it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var se *mapperrors.SchemaError
	if !errors.As(err, &se) {
		return
	}
	if se.Hint != "" {
		fmt.Fprintf(w, "  Run: %s\n", se.Hint)
		return
	}
	fmt.Fprintf(w, "  %s\n", mapperrors.GetSuggestedAction(se.Code))
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .yaml or .toml (default is ~/.icd11map/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: auto, console, json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "write the file here instead of the default location")

	rootCmd.AddCommand(cmd.NewEnrichCommand(deps))
	rootCmd.AddCommand(cmd.NewResolveCommand(deps))
	rootCmd.AddCommand(cmd.NewIndexCommand(deps))

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
