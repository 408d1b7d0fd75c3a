package parser

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/model"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

const unk = "unknown environment"

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	p := New(cfg)
	require.Equal(t, cfg, p.config)
	assert.Equal(t, config.FormatCSV, p.Format())
}

func TestNewWithOptions(t *testing.T) {
	cfg := &config.Config{Input: config.Input{Format: config.FormatJSON, Query: "SELECT 1"}}

	p := New(cfg)
	assert.Equal(t, config.FormatJSON, p.Format())
	assert.Equal(t, "SELECT 1", p.query)

	p = New(cfg, WithFormat(config.FormatSQLite), WithQuery("SELECT 2"))
	assert.Equal(t, config.FormatSQLite, p.Format())
	assert.Equal(t, "SELECT 2", p.query)

	p = New(cfg, WithFormat(""), WithQuery(""))
	assert.Equal(t, config.FormatJSON, p.Format(), "empty overrides are ignored")
	assert.Equal(t, "SELECT 1", p.query)

	p = New(nil)
	assert.Equal(t, config.FormatCSV, p.Format())
}

func TestParseCSV(t *testing.T) {
	p := New(&config.Config{})
	require.NoError(t, p.ParseFiles(testdataPath("sales.csv")))

	sources := p.Sources()
	require.Len(t, sources, 1)

	source := sources[0]
	assert.Equal(t, testdataPath("sales.csv"), source.File)
	assert.Equal(t, config.FormatCSV, source.Format)
	assert.Equal(t, []string{"sales", "region", "profit", "discount"}, columnNames(source.Table))
	require.Len(t, source.Rows, 3)

	assert.Equal(t, []any{100.0, "east", 12.5, 0.1}, source.Rows[0])
	assert.Nil(t, source.Rows[1][0], "empty cells are nil")
	assert.Nil(t, source.Rows[2][3])
}

func TestParseCSVWithColumnRoles(t *testing.T) {
	cfg := mustLoadConfig(t, `
columns:
  - name: region
    role: Category
  - name: discount
    role: X
  - name: profit
    role: Y
  - name: sales
    role: Value
`)
	p := New(cfg)
	require.NoError(t, p.ParseFiles(testdataPath("sales.csv")))

	table := p.Table()
	assert.Equal(t, []string{"region", "discount", "profit", "sales"}, columnNames(*table))
	assert.True(t, table.Columns[0].Roles[model.RoleCategory])
	assert.True(t, table.Columns[3].Roles[model.RoleValue])
	assert.Equal(t, []any{"east", 0.1, 12.5, 100.0}, table.Rows[0])

	t.Run("configured columns missing from the input are skipped", func(t *testing.T) {
		cfg := mustLoadConfig(t, `
columns:
  - name: region
    role: Category
  - name: discount
    role: X
  - name: margin
    role: Y
`)
		p := New(cfg)
		require.NoError(t, p.ParseFiles(testdataPath("sales.csv")))

		assert.Equal(t, []string{"region", "discount"}, columnNames(*p.Table()))
	})

	t.Run("no configured column found keeps the input as is", func(t *testing.T) {
		cfg := mustLoadConfig(t, `
columns:
  - name: unknown
    role: X
`)
		p := New(cfg)
		require.NoError(t, p.ParseFiles(testdataPath("sales.csv")))

		assert.Equal(t, []string{"sales", "region", "profit", "discount"}, columnNames(*p.Table()))
	})
}

func TestParseInputCSV(t *testing.T) {
	p := New(nil)

	source, err := p.ParseInput(strings.NewReader("c, x, y\n a , 1 ,2\nb,3\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "x", "y"}, columnNames(source.Table))
	assert.Equal(t, []any{"a", 1.0, 2.0}, source.Rows[0])
	assert.Equal(t, []any{"b", 3.0, nil}, source.Rows[1], "short records are padded")

	t.Run("empty input", func(t *testing.T) {
		source, err := p.ParseInput(strings.NewReader(""))
		require.NoError(t, err)
		assert.True(t, source.IsEmpty())
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := p.ParseInput(strings.NewReader("a,b\n\"unterminated,1\n"))
		require.Error(t, err)
	})
}

func TestParseJSONDataView(t *testing.T) {
	p := New(nil, WithFormat(config.FormatJSON))
	require.NoError(t, p.ParseFiles(testdataPath("dataview.json")))

	table := p.Table()
	assert.Equal(t, []string{"Sales", "Region", "Discount", "Profit"}, columnNames(*table))
	assert.True(t, table.Columns[0].Roles[model.RoleValue])
	assert.True(t, table.Columns[2].Roles[model.RoleX])
	assert.Equal(t, []string{"row-0", "row-1"}, table.Identities)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []any{100.0, "east", 0.1, 12.5}, table.Rows[0])
	assert.Nil(t, table.Rows[1][0])
}

func TestParseJSONRecords(t *testing.T) {
	p := New(nil, WithFormat(config.FormatJSON))
	require.NoError(t, p.ParseFiles(testdataPath("records.json")))

	table := p.Table()
	assert.Equal(t, []string{"region", "discount", "profit", "sales", "tags"}, columnNames(*table))
	require.Len(t, table.Rows, 3)

	assert.Equal(t, []any{"east", 0.1, 12.5, nil, nil}, table.Rows[0])
	assert.Equal(t, []any{"west", 0.2, -3.0, 42.0, `["a","b"]`}, table.Rows[1])
	assert.Equal(t, []any{"south", nil, 7.0, nil, nil}, table.Rows[2])
}

func TestParseJSONInvalid(t *testing.T) {
	p := New(nil, WithFormat(config.FormatJSON))

	for _, input := range []string{
		"42",
		`{"columns": 1}`,
		`[1, 2]`,
		`[{"a": 1}`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := p.ParseInput(strings.NewReader(input))
			require.Error(t, err)
		})
	}

	t.Run("empty input", func(t *testing.T) {
		source, err := p.ParseInput(strings.NewReader("  \n"))
		require.NoError(t, err)
		assert.True(t, source.IsEmpty())
	})
}

func TestParseGoBenchText(t *testing.T) {
	p := New(nil, WithFormat(config.FormatGoBench))
	require.NoError(t, p.ParseFiles(testdataPath("bench.txt")))

	source := p.Sources()[0]
	assert.Equal(t, []string{ColumnBenchmark, ColumnNsPerOp, ColumnBytesPerOp, ColumnAllocsPerOp}, columnNames(source.Table))
	require.Len(t, source.Rows, 3)

	assert.Equal(t, []any{"BenchmarkBin/small-16", 2345.0, 512.0, 8.0}, source.Rows[0])
	assert.Equal(t, "BenchmarkBin/large-16", source.Rows[1][0])
	assert.Equal(t, "BenchmarkHexagon-16", source.Rows[2][0])

	assert.Contains(t, source.Environment, "linux")
	assert.Contains(t, source.Environment, "amd64")
	assert.Contains(t, source.Environment, "cpu: Test CPU @ 3.00GHz")
}

func TestParseGoBenchJSON(t *testing.T) {
	p := New(nil, WithFormat(config.FormatGoBench))
	require.NoError(t, p.ParseFiles(testdataPath("bench.json")))

	source := p.Sources()[0]
	require.Len(t, source.Rows, 2)
	assert.Equal(t, []any{"BenchmarkBin/small-8", 2500.0, 512.0, 8.0}, source.Rows[0])
	assert.Contains(t, source.Environment, "arm64")
}

func TestParseGoBenchEmpty(t *testing.T) {
	p := New(nil, WithFormat(config.FormatGoBench))

	source, err := p.ParseInput(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, source.Rows)
	assert.Equal(t, unk, source.Environment)
}

func TestExtractEnvironment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string // substrings that must be present
	}{
		{
			name:  "full environment",
			input: "goos: linux\ngoarch: amd64\ncpu: Intel Core i7\n",
			want:  []string{"linux", "amd64", "cpu: Intel Core i7"},
		},
		{
			name:  "goos only",
			input: "goos: darwin\n",
			want:  []string{"darwin"},
		},
		{
			name:  "no environment info",
			input: "BenchmarkFoo-8  1000  1234 ns/op\n",
			want:  []string{unk},
		},
		{
			name:  "cpu with extra whitespace",
			input: "cpu: AMD Ryzen 7 5800X 8-Core Processor             \n",
			want:  []string{"cpu: AMD Ryzen 7 5800X 8-Core Processor"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractEnvironment(tt.input)
			for _, substr := range tt.want {
				assert.Contains(t, got, substr)
			}
			assert.False(t, strings.HasSuffix(got, " "))
		})
	}
}

func TestParseSQLite(t *testing.T) {
	file := mustCreateDatabase(t)

	p := New(nil,
		WithFormat(config.FormatSQLite),
		WithQuery("SELECT region, discount, profit, sales FROM sales ORDER BY rowid"),
	)
	require.NoError(t, p.ParseFiles(file))

	table := p.Table()
	assert.Equal(t, []string{"region", "discount", "profit", "sales"}, columnNames(*table))
	require.Len(t, table.Rows, 3)

	row := table.Rows[0]
	assert.Equal(t, "east", model.Label(row[0]))
	assertNumber(t, 0.1, row[1])
	assertNumber(t, 12.5, row[2])
	assertNumber(t, 100, row[3])
	assert.Nil(t, table.Rows[1][3])

	t.Run("with column roles", func(t *testing.T) {
		cfg := mustLoadConfig(t, `
input:
  format: sqlite
  query: SELECT * FROM sales
columns:
  - name: profit
    role: Y
  - name: discount
    role: X
`)
		p := New(cfg)
		require.NoError(t, p.ParseFiles(file))

		table := p.Table()
		assert.Equal(t, []string{"profit", "discount"}, columnNames(*table))
		assert.True(t, table.Columns[0].Roles[model.RoleY])
	})
}

func TestParseSQLiteErrors(t *testing.T) {
	file := mustCreateDatabase(t)

	t.Run("without query", func(t *testing.T) {
		p := New(nil, WithFormat(config.FormatSQLite))
		require.Error(t, p.ParseFiles(file))
	})

	t.Run("with an invalid query", func(t *testing.T) {
		p := New(nil, WithFormat(config.FormatSQLite), WithQuery("SELECT * FROM nowhere"))
		require.Error(t, p.ParseFiles(file))
	})

	t.Run("from stdin", func(t *testing.T) {
		p := New(nil, WithFormat(config.FormatSQLite), WithQuery("SELECT 1"))
		require.Error(t, p.ParseFiles("-"))
	})

	t.Run("from a stream", func(t *testing.T) {
		p := New(nil, WithFormat(config.FormatSQLite), WithQuery("SELECT 1"))
		_, err := p.ParseInput(strings.NewReader(""))
		require.Error(t, err)
	})
}

func TestTableMerge(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.ParseFiles(
		testdataPath("sales.csv"),
		testdataPath("other.csv"),
		testdataPath("sales_more.csv"),
	))
	assert.Len(t, p.Sources(), 3)

	table := p.Table()
	require.Len(t, table.Rows, 4, "the input with different columns is skipped")
	assert.Equal(t, "north", table.Rows[3][1])
	assert.Empty(t, table.Identities)

	t.Run("identities are padded", func(t *testing.T) {
		p := New(nil, WithFormat(config.FormatJSON))
		require.NoError(t, p.ParseFiles(testdataPath("dataview.json"), testdataPath("dataview.json")))

		table := p.Table()
		assert.Len(t, table.Rows, 4)
		assert.Equal(t, []string{"row-0", "row-1", "row-0", "row-1"}, table.Identities)
	})

	t.Run("no input", func(t *testing.T) {
		assert.True(t, New(nil).Table().IsEmpty())
	})
}

func TestReport(t *testing.T) {
	p := New(nil)
	require.NoError(t, p.ParseFiles(testdataPath("sales.csv"), testdataPath("sales_more.csv")))

	r := p.Report()
	assert.Equal(t, "csv", r.Format)
	assert.Equal(t, []string{testdataPath("sales.csv"), testdataPath("sales_more.csv")}, r.AnalyzedFiles)
	assert.Equal(t, 4, r.Rows)
	require.Len(t, r.Columns, 4)

	sales := r.Columns[0]
	assert.Equal(t, "sales", sales.Name)
	assert.Equal(t, 3, sales.Count)
	assert.InDelta(t, 80, sales.Min, 1e-9)
	assert.InDelta(t, 250, sales.Max, 1e-9)
	assert.Len(t, sales.Origins, 2)

	region := r.Columns[1]
	assert.Zero(t, region.Count, "labels are not numbers")
}

func TestReportRoles(t *testing.T) {
	p := New(nil, WithFormat(config.FormatJSON))
	require.NoError(t, p.ParseFiles(testdataPath("dataview.json")))

	r := p.Report()
	require.Len(t, r.Columns, 4)
	assert.Equal(t, []model.Role{model.RoleValue}, r.Columns[0].Roles)
}

func TestParseFileMissing(t *testing.T) {
	p := New(nil)

	require.Error(t, p.ParseFiles("/nonexistent/file.csv"))
}

func TestParseInputFailingReader(t *testing.T) {
	errExpected := errors.New("read error")

	for _, format := range []config.Format{config.FormatCSV, config.FormatJSON, config.FormatGoBench} {
		t.Run(format.String(), func(t *testing.T) {
			p := New(nil, WithFormat(format))

			_, err := p.ParseInput(&failingReader{err: errExpected})
			require.ErrorIs(t, err, errExpected)
		})
	}
}

// helpers

func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

func columnNames(table model.Table) []string {
	names := make([]string, 0, len(table.Columns))
	for _, column := range table.Columns {
		names = append(names, column.DisplayName)
	}

	return names
}

func assertNumber(t *testing.T, want float64, cell any) {
	t.Helper()

	v, ok := model.Number(cell)
	require.True(t, ok, "expected a number, got %T", cell)
	assert.InDelta(t, want, v, 1e-9)
}

func mustLoadConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	file := filepath.Join(t.TempDir(), "hexbinviz.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := config.Load(file)
	require.NoError(t, err)

	return cfg
}

func mustCreateDatabase(t *testing.T) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "sales.db")
	db, err := sql.Open("sqlite", file)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	_, err = db.Exec(`CREATE TABLE sales (region TEXT, discount REAL, profit REAL, sales INTEGER)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO sales (region, discount, profit, sales) VALUES
		('east', 0.1, 12.5, 100),
		('west', 0.2, -3, NULL),
		('east', 0.3, 40, 250)`)
	require.NoError(t, err)

	return file
}

type failingReader struct {
	err error
}

func (r *failingReader) Read([]byte) (int, error) {
	return 0, r.err
}
