// Package enrich appends ICD-11 mappings to a table of terms.
package enrich

import (
	"strings"
	"time"

	"github.com/google/uuid"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/logging"
	"github.com/otherjamesbrown/icd11map/pkg/observability"
	"github.com/otherjamesbrown/icd11map/pkg/resolver"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

// Default column names.
const (
	DefaultCurieColumn  = "CURIE"
	DefaultOutputColumn = "ICD11_mappings"
)

// DefaultProgressEvery is the default row interval between progress callbacks.
const DefaultProgressEvery = 10000

// CodeSeparator joins the codes of one row in the output column.
const CodeSeparator = ", "

// Options configures one enrichment pass.
type Options struct {
	// CurieColumn holds the identifier of each row.
	CurieColumn string

	// OutputColumn receives the joined ICD-11 codes. An existing column of
	// that name is overwritten.
	OutputColumn string

	// RunID labels the pass. A new one is generated when empty.
	RunID string

	// OnProgress, when set, is called every ProgressEvery rows and once
	// after the last row.
	OnProgress    func(done, total int)
	ProgressEvery int
}

func (o Options) withDefaults() Options {
	if o.CurieColumn == "" {
		o.CurieColumn = DefaultCurieColumn
	}
	if o.OutputColumn == "" {
		o.OutputColumn = DefaultOutputColumn
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.RunID == "" {
		o.RunID = uuid.New().String()
	}
	return o
}

// Stats summarizes an enrichment pass.
type Stats struct {
	RunID         string                `json:"run_id" yaml:"run_id"`
	Rows          int                   `json:"rows" yaml:"rows"`
	RowsMapped    int                   `json:"rows_mapped" yaml:"rows_mapped"`
	TotalMappings int                   `json:"total_mappings" yaml:"total_mappings"`
	ByKind        map[resolver.Kind]int `json:"by_kind" yaml:"by_kind"`
	Output        string                `json:"output,omitempty" yaml:"output,omitempty"`
	StartedAt     time.Time             `json:"started_at" yaml:"started_at"`
	Duration      time.Duration         `json:"duration" yaml:"duration"`
}

func newStats(runID string) *Stats {
	return &Stats{
		RunID:     runID,
		ByKind:    make(map[resolver.Kind]int),
		StartedAt: time.Now(),
	}
}

// Enricher resolves the identifier column of a table and writes the codes
// into a new column.
type Enricher struct {
	resolver *resolver.Resolver
	metrics  *observability.RunMetrics
	logger   logging.Logger
}

// NewEnricher creates an Enricher. metrics and logger may be nil.
func NewEnricher(r *resolver.Resolver, metrics *observability.RunMetrics, logger logging.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Enricher{resolver: r, metrics: metrics, logger: logger}
}

// Enrich fills opts.OutputColumn of table in place. The identifier column is
// checked before any row is processed; when it is absent table is left
// untouched and a missing_column SchemaError is returned.
func (e *Enricher) Enrich(table *tsv.Table, opts Options) (*Stats, error) {
	opts = opts.withDefaults()
	stats := newStats(opts.RunID)

	if !table.HasColumn(opts.CurieColumn) {
		return nil, mapperrors.MissingColumn(table.Source, opts.CurieColumn, table.Header)
	}
	col := table.ColumnIndex(opts.CurieColumn)

	values := make([]string, table.Len())
	for i := range table.Rows {
		res := e.resolver.Explain(table.Cell(i, col))
		values[i] = strings.Join(res.Codes, CodeSeparator)

		stats.Rows++
		stats.ByKind[res.Kind]++
		if res.Found() {
			stats.RowsMapped++
			stats.TotalMappings += len(res.Codes)
		}
		if e.metrics != nil {
			e.metrics.RecordResolution(res.Kind.String(), len(res.Codes))
		}
		if opts.OnProgress != nil && stats.Rows%opts.ProgressEvery == 0 && stats.Rows < len(values) {
			opts.OnProgress(stats.Rows, len(values))
		}
	}
	table.SetColumn(opts.OutputColumn, values)
	if opts.OnProgress != nil {
		opts.OnProgress(stats.Rows, len(values))
	}

	stats.Duration = time.Since(stats.StartedAt)
	e.logger.Debug("Enriched rows",
		logging.F("rows", stats.Rows),
		logging.F("rows_mapped", stats.RowsMapped),
		logging.F("total_mappings", stats.TotalMappings),
	)
	return stats, nil
}
