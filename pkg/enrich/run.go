package enrich

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
	"github.com/otherjamesbrown/icd11map/pkg/mapping"
	"github.com/otherjamesbrown/icd11map/pkg/observability"
	"github.com/otherjamesbrown/icd11map/pkg/resolver"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// OutputSuffix is inserted before the extension of the default output name.
const OutputSuffix = "_with_icd11"

// RunConfig configures a full enrichment run.
type RunConfig struct {
	Input    string
	Output   string
	Mappings mapping.Paths
	Options  Options

	// Encoding of the input and mapping tables.
	Encoding tsv.Encoding

	// MetricsFile, when set, receives a Prometheus textfile after a
	// successful run.
	MetricsFile string

	Logger logging.Logger
	Tracer *observability.Tracer
}

// DefaultOutputPath derives the output path for input inside dataDir:
// "terms.tsv.gz" becomes "<dataDir>/terms_with_icd11.tsv.gz".
func DefaultOutputPath(dataDir, input string) string {
	base, comp := tsv.SplitCompression(filepath.Base(input))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dataDir, stem+OutputSuffix+ext+comp)
}

// Run loads the mapping indexes, enriches the input table and writes the
// result. Mapping files are checked before the input file, and both before
// anything is read. Nothing is written when any step fails.
func Run(ctx context.Context, cfg RunConfig) (stats *Stats, err error) {
	if cfg.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}
	base := cfg.Logger
	if base == nil {
		base = logging.NewNopLogger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observability.NewTracer()
	}
	metrics := observability.NewRunMetrics()
	start := time.Now()

	runID := uuid.New().String()
	ctx = context.WithValue(ctx, logging.RunIDKey, runID)
	log := base.WithContext(ctx)

	ctx, runSpan := tracer.StartRunSpan(ctx, runID)
	defer func() { observability.EndSpan(runSpan, err, string(mapperrors.CodeOf(err))) }()

	if err := mapping.CheckFiles(cfg.Mappings); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Input); err != nil {
		return nil, mapperrors.ClassifyFileError(err, cfg.Input)
	}

	indexes, err := loadIndexes(ctx, tracer, cfg, base)
	if err != nil {
		return nil, err
	}
	for _, idx := range []*mapping.Index{indexes.MondoToICD11, indexes.ICD10ToMondo} {
		metrics.RecordIndex(idx.Name(), idx.Len(), idx.Pairs())
	}

	table, err := readInput(ctx, tracer, cfg)
	if err != nil {
		return nil, err
	}

	enricher := NewEnricher(resolver.New(indexes), metrics, log)
	_, span := tracer.StartStageSpan(ctx, observability.SpanEnrichRows, "enrich_rows")
	opts := cfg.Options
	opts.RunID = runID
	if opts.OnProgress == nil {
		opts.OnProgress = func(done, total int) {
			log.Debug("Enrichment progress", logging.F("rows_done", done), logging.F("rows_total", total))
		}
	}
	stats, err = enricher.Enrich(table, opts)
	if err == nil {
		observability.SetRowCounts(span, stats.Rows, stats.RowsMapped)
	}
	observability.EndSpan(span, err, string(mapperrors.CodeOf(err)))
	if err != nil {
		return nil, err
	}

	_, span = tracer.StartStageSpan(ctx, observability.SpanWriteOutput, "write_output")
	err = tsv.WriteFile(cfg.Output, table)
	observability.SetFileAttributes(span, cfg.Output, table.Len())
	observability.EndSpan(span, err, string(mapperrors.CodeOf(err)))
	if err != nil {
		return nil, err
	}

	stats.Output = cfg.Output
	stats.Duration = time.Since(start)
	log.Info("Enrichment complete",
		logging.F("input", cfg.Input),
		logging.F("output", cfg.Output),
		logging.F("rows", stats.Rows),
		logging.F("rows_mapped", stats.RowsMapped),
		logging.F("total_mappings", stats.TotalMappings),
		logging.F("duration", stats.Duration),
	)

	if cfg.MetricsFile != "" {
		metrics.RunDurationSeconds.Set(stats.Duration.Seconds())
		metrics.LastSuccess.SetToCurrentTime()
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			// The table is already written; a metrics failure does not fail the run.
			log.Warn("Failed to write metrics file", logging.F("path", cfg.MetricsFile), logging.Err(err))
		}
	}
	return stats, nil
}

func loadIndexes(ctx context.Context, tracer *observability.Tracer, cfg RunConfig, log logging.Logger) (*mapping.Indexes, error) {
	ctx, span := tracer.StartStageSpan(ctx, observability.SpanLoadIndexes, "load_indexes")
	indexes, err := mapping.Load(ctx, cfg.Mappings, mapping.LoadOptions{Encoding: cfg.Encoding, Logger: log})
	observability.EndSpan(span, err, string(mapperrors.CodeOf(err)))
	return indexes, err
}

func readInput(ctx context.Context, tracer *observability.Tracer, cfg RunConfig) (*tsv.Table, error) {
	_, span := tracer.StartStageSpan(ctx, observability.SpanReadInput, "read_input")
	table, err := tsv.ReadFile(cfg.Input, tsv.ReadOptions{Encoding: cfg.Encoding})
	if err == nil {
		observability.SetFileAttributes(span, cfg.Input, table.Len())
	}
	observability.EndSpan(span, err, string(mapperrors.CodeOf(err)))
	return table, err
}
