package enrich

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mapperrors "github.com/otherjamesbrown/icd11map/pkg/errors"
	"github.com/otherjamesbrown/icd11map/pkg/mapping"
	"github.com/otherjamesbrown/icd11map/pkg/observability"
	"github.com/otherjamesbrown/icd11map/pkg/resolver"
	"github.com/otherjamesbrown/icd11map/pkg/tsv"
)

const (
	mondoICD11Fixture = "?mondo_curie\t?icd11_xref\n" +
		"MONDO:1\tICD11:A\n" +
		"MONDO:2\tICD11:A\n" +
		"MONDO:2\tICD11:C\n"
	icd10MondoFixture = "?icd10_xref\t?mondo_curie\n" +
		"ICD10CM:X\tMONDO:1\n" +
		"ICD10CM:X\tMONDO:2\n"
	inputFixture = "CURIE\tlabel\n" +
		"MONDO:1\tfirst\n" +
		"ICD10CM:X\tsecond\n" +
		"HP:0000001\tthird\n" +
		"\tempty\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixtureRun(t *testing.T) (RunConfig, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := RunConfig{
		Input:  writeFile(t, dir, "terms.tsv", inputFixture),
		Output: filepath.Join(dir, "out", "terms_with_icd11.tsv"),
		Mappings: mapping.Paths{
			MondoICD11: writeFile(t, dir, "mondo_icd11_mappings.tsv", mondoICD11Fixture),
			ICD10Mondo: writeFile(t, dir, "icd10_mondo_mappings.tsv", icd10MondoFixture),
		},
	}
	return cfg, dir
}

func fixtureEnricher() *Enricher {
	mondo := mapping.NewIndex(mapping.IndexMondoToICD11)
	mondo.Add("MONDO:1", "ICD11:A")
	mondo.Add("MONDO:1", "ICD11:B")
	icd10 := mapping.NewIndex(mapping.IndexICD10ToMondo)
	icd10.Add("ICD10CM:X", "MONDO:1")

	r := resolver.New(&mapping.Indexes{MondoToICD11: mondo, ICD10ToMondo: icd10})
	return NewEnricher(r, nil, nil)
}

func TestEnrich_AppendsColumn(t *testing.T) {
	table := tsv.NewTable("CURIE", "label")
	table.AppendRow("MONDO:1", "a")
	table.AppendRow("ICD10CM:X", "b")
	table.AppendRow("FOO:1", "c")

	stats, err := fixtureEnricher().Enrich(table, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"CURIE", "label", DefaultOutputColumn}, table.Header)
	assert.Equal(t, "ICD11:A, ICD11:B", table.Rows[0][2])
	assert.Equal(t, "ICD11:A, ICD11:B", table.Rows[1][2])
	assert.Equal(t, "", table.Rows[2][2])

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.RowsMapped)
	assert.Equal(t, 4, stats.TotalMappings)
	assert.Equal(t, 1, stats.ByKind[resolver.KindMondo])
	assert.Equal(t, 1, stats.ByKind[resolver.KindICD10])
	assert.Equal(t, 1, stats.ByKind[resolver.KindUnrecognized])
	assert.NotEmpty(t, stats.RunID)
}

func TestEnrich_CustomColumns(t *testing.T) {
	table := tsv.NewTable("id")
	table.AppendRow("MONDO:1")

	_, err := fixtureEnricher().Enrich(table, Options{CurieColumn: "id", OutputColumn: "icd11", RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "icd11"}, table.Header)
	assert.Equal(t, "ICD11:A, ICD11:B", table.Rows[0][1])
}

func TestEnrich_OverwritesExistingOutputColumn(t *testing.T) {
	table := tsv.NewTable("CURIE", DefaultOutputColumn)
	table.AppendRow("MONDO:1", "stale")

	_, err := fixtureEnricher().Enrich(table, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"CURIE", DefaultOutputColumn}, table.Header)
	assert.Equal(t, "ICD11:A, ICD11:B", table.Rows[0][1])
}

func TestEnrich_MissingColumn(t *testing.T) {
	table := tsv.NewTable("id", "label")
	table.Source = "terms.tsv"
	table.AppendRow("MONDO:1", "a")

	stats, err := fixtureEnricher().Enrich(table, Options{})
	require.Error(t, err)
	assert.Nil(t, stats)

	var se *mapperrors.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, mapperrors.ErrMissingColumn, se.Code)
	assert.Equal(t, []string{"id", "label"}, se.Available)
	assert.Contains(t, err.Error(), "id, label")
	assert.Contains(t, err.Error(), `"CURIE"`)

	// No row was touched.
	assert.Equal(t, []string{"id", "label"}, table.Header)
	assert.Equal(t, []string{"MONDO:1", "a"}, table.Rows[0])
}

func TestEnrich_Progress(t *testing.T) {
	table := tsv.NewTable("CURIE")
	for i := 0; i < 5; i++ {
		table.AppendRow("MONDO:1")
	}

	var calls [][2]int
	opts := Options{
		ProgressEvery: 2,
		OnProgress:    func(done, total int) { calls = append(calls, [2]int{done, total}) },
	}
	_, err := fixtureEnricher().Enrich(table, opts)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, calls)
}

func TestEnrich_RecordsMetrics(t *testing.T) {
	table := tsv.NewTable("CURIE")
	table.AppendRow("MONDO:1")
	table.AppendRow("HP:1")

	m := observability.NewRunMetrics()
	e := fixtureEnricher()
	e.metrics = m

	_, err := e.Enrich(table, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsMappedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MappingsTotal))
}

func TestRun_EndToEnd(t *testing.T) {
	cfg, _ := fixtureRun(t)

	stats, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 2, stats.RowsMapped)
	assert.Equal(t, cfg.Output, stats.Output)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	want := "CURIE\tlabel\tICD11_mappings\n" +
		"MONDO:1\tfirst\tICD11:A\n" +
		"ICD10CM:X\tsecond\tICD11:A, ICD11:C\n" +
		"HP:0000001\tthird\t\n" +
		"\tempty\t\n"
	assert.Equal(t, want, string(got))
}

func TestRun_Idempotent(t *testing.T) {
	cfg, _ := fixtureRun(t)

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)

	_, err = Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Feeding the output back in overwrites the column rather than adding one.
	again := cfg
	again.Input = cfg.Output
	again.Output = cfg.Output + ".again.tsv"
	_, err = Run(context.Background(), again)
	require.NoError(t, err)
	third, err := os.ReadFile(again.Output)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestRun_CompressedOutput(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Output = filepath.Join(dir, "terms_with_icd11.tsv.gz")

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	table, err := tsv.ReadFile(cfg.Output, tsv.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ICD11:A, ICD11:C", table.Rows[1][2])
}

func TestRun_MissingMappingFile(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Mappings.ICD10Mondo = filepath.Join(dir, "absent.tsv")
	// The input is missing too: the mapping check must fail first.
	cfg.Input = filepath.Join(dir, "also_absent.tsv")

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, mapperrors.IsSchema(err))

	var se *mapperrors.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, mapperrors.ErrMissingFile, se.Code)
	assert.Equal(t, cfg.Mappings.ICD10Mondo, se.File)
	assert.Contains(t, se.Hint, "extract_icd10_mondo")

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingInputFile(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Input = filepath.Join(dir, "absent.tsv")

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, mapperrors.ErrMissingFile, mapperrors.CodeOf(err))
}

func TestRun_MissingIdentifierColumn(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Input = writeFile(t, dir, "bad.tsv", "id\tlabel\nMONDO:1\tx\n")

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, mapperrors.ErrMissingColumn, mapperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "id, label")

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_RejectsInvalidUTF8Input(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Input = writeFile(t, dir, "legacy.tsv", "CURIE\tlabel\tnote\nMONDO:1\tBeh\xe7et\t  indented\n")

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)

	var se *mapperrors.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, mapperrors.ErrMalformedRow, se.Code)
	assert.Equal(t, cfg.Input, se.File)
	assert.Equal(t, 2, se.Line)
	assert.Contains(t, se.Hint, "--input-encoding latin1")

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Latin1InputPassesThrough(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.Input = writeFile(t, dir, "legacy.tsv", "CURIE\tlabel\tnote\nMONDO:1\tBeh\xe7et\t  indented\n")
	cfg.Encoding = tsv.EncodingLatin1

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, "CURIE\tlabel\tnote\tICD11_mappings\nMONDO:1\tBehçet\t  indented\tICD11:A\n", string(got))
}

func TestRun_MetricsFile(t *testing.T) {
	cfg, dir := fixtureRun(t)
	cfg.MetricsFile = filepath.Join(dir, "metrics", "icd11map.prom")

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "icd11map_rows_total 4"), text)
	assert.True(t, strings.Contains(text, `icd11map_index_keys{index="mondo_icd11"} 2`), text)
}

func TestRun_RequiresOutput(t *testing.T) {
	cfg, _ := fixtureRun(t)
	cfg.Output = ""

	_, err := Run(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		dataDir, input, want string
	}{
		{"data", "terms.tsv", filepath.Join("data", "terms_with_icd11.tsv")},
		{"data", "/tmp/in/terms.tsv.gz", filepath.Join("data", "terms_with_icd11.tsv.gz")},
		{"out", "terms.tsv.zst", filepath.Join("out", "terms_with_icd11.tsv.zst")},
		{"out", "terms", filepath.Join("out", "terms_with_icd11")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOutputPath(tt.dataDir, tt.input))
		})
	}
}
