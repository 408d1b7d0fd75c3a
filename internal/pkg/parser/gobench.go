package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"golang.org/x/tools/benchmark/parse"
)

// Columns of a table read from Go benchmark output.
const (
	ColumnBenchmark   = "benchmark"
	ColumnNsPerOp     = "ns/op"
	ColumnBytesPerOp  = "B/op"
	ColumnAllocsPerOp = "allocs/op"
)

// parseGoBench reads the output of "go test -bench", as text or as "go test -json" events.
//
// Each measurement becomes a row [benchmark, ns/op, B/op, allocs/op], in input order.
func (p *TableParser) parseGoBench(r io.Reader) (Source, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Source{}, fmt.Errorf("reading input: %w", err)
	}

	text := string(content)
	if trimmed := bytes.TrimSpace(content); len(trimmed) > 0 && trimmed[0] == '{' {
		text, err = extractOutput(bytes.NewReader(content))
		if err != nil {
			return Source{}, err
		}
	}

	set, err := parse.ParseSet(strings.NewReader(text))
	if err != nil {
		return Source{}, fmt.Errorf("parsing benchmark output: %w", err)
	}

	var benchmarks []*parse.Benchmark
	for _, measurements := range set {
		benchmarks = append(benchmarks, measurements...)
	}
	slices.SortFunc(benchmarks, func(a, b *parse.Benchmark) int {
		return a.Ord - b.Ord
	})

	table := model.Table{
		Columns: []model.Column{
			{DisplayName: ColumnBenchmark},
			{DisplayName: ColumnNsPerOp},
			{DisplayName: ColumnBytesPerOp},
			{DisplayName: ColumnAllocsPerOp},
		},
		Rows: make([][]any, 0, len(benchmarks)),
	}

	for _, bench := range benchmarks {
		table.Rows = append(table.Rows, []any{
			bench.Name,
			bench.NsPerOp,
			float64(bench.AllocedBytesPerOp),
			float64(bench.AllocsPerOp),
		})
	}

	return Source{
		Table:       table,
		Environment: extractEnvironment(text),
	}, nil
}

// extractOutput collects the Output fields of "output" events from `go test -json`.
func extractOutput(r io.Reader) (string, error) {
	var textOutput strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event testEvent
		if err := json.Unmarshal(line, &event); err != nil { //nolint:musttag // JSON produced uses titleized keys expected by std json/encoding
			continue
		}

		if event.Action == "output" && event.Output != "" {
			textOutput.WriteString(event.Output)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scanning input: %w", err)
	}

	return textOutput.String(), nil
}

// extractEnvironment extracts environment information from benchmark output.
// It looks for goos, goarch, and cpu lines and combines them.
func extractEnvironment(text string) string {
	var parts []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "goos: "):
			parts = append(parts, strings.TrimPrefix(line, "goos: "))
		case strings.HasPrefix(line, "goarch: "):
			parts = append(parts, strings.TrimPrefix(line, "goarch: "))
		case strings.HasPrefix(line, "cpu: "):
			cpu := strings.TrimSpace(strings.TrimPrefix(line, "cpu: "))
			parts = append(parts, "cpu: "+cpu)
		}
	}

	if len(parts) == 0 {
		return "unknown environment"
	}

	return strings.Join(parts, " ")
}

// testEvent represents a single JSON event from `go test -json` output.
// See: https://pkg.go.dev/cmd/test2json
type testEvent struct {
	Action string
	Output string
}
