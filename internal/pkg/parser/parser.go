// Package parser reads input files into host tables.
package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/fredbi/hexbinviz/internal/pkg/config"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// Source is a table read from one input file.
type Source struct {
	model.Table

	File        string
	Format      config.Format
	Environment string // Environment describes the machine that produced a benchmark input
}

// TableParser reads input files in one of the supported [config.Format] encodings.
type TableParser struct {
	options

	config  *config.Config
	sources []Source
	l       *slog.Logger
}

// New [TableParser] ready to parse input files.
func New(cfg *config.Config, opts ...Option) *TableParser {
	return &TableParser{
		options: optionsWithDefaults(cfg, opts),
		config:  cfg,
		l:       slog.Default().With(slog.String("module", "parser")),
	}
}

// Format returns the input format in use.
func (p *TableParser) Format() config.Format {
	return p.format
}

// ParseFiles reads input files and accumulates their tables. The file name "-" stands for the standard input.
//
// SQLite inputs must be actual files.
func (p *TableParser) ParseFiles(files ...string) error {
	for _, file := range files {
		source, err := p.parseFile(file)
		if err != nil {
			return err
		}

		source.File = file
		p.sources = append(p.sources, source)
	}

	p.l.Info("input parsed",
		slog.Int("parsed_files", len(files)),
		slog.String("format", p.format.String()),
	)

	return nil
}

func (p *TableParser) parseFile(file string) (Source, error) {
	if p.format == config.FormatSQLite {
		if file == "-" {
			return Source{}, fmt.Errorf("input format %q cannot be read from stdin", p.format)
		}

		return p.parseSQLite(context.Background(), file)
	}

	var (
		reader io.ReadCloser
		err    error
	)

	if file == "-" {
		reader = os.Stdin
	} else {
		reader, err = os.Open(file)
		if err != nil {
			return Source{}, fmt.Errorf("input file %q: %w", file, err)
		}
		defer func() {
			_ = reader.Close()
		}()
	}

	source, err := p.ParseInput(reader)
	if err != nil {
		return Source{}, fmt.Errorf("input file %q: %w", file, err)
	}

	return source, nil
}

// ParseInput reads a single table from r.
func (p *TableParser) ParseInput(r io.Reader) (Source, error) {
	var (
		source Source
		err    error
	)

	switch p.format {
	case config.FormatCSV:
		source, err = p.parseCSV(r)
	case config.FormatJSON:
		source, err = p.parseJSON(r)
	case config.FormatGoBench:
		source, err = p.parseGoBench(r)
	default:
		return Source{}, fmt.Errorf("input format %q cannot be read from a stream", p.format)
	}

	if err != nil {
		return Source{}, err
	}

	source.Format = p.format
	source.Table = p.applyRoles(source.Table)

	return source, nil
}

// Sources returns the tables parsed so far, one per input file.
func (p *TableParser) Sources() []Source {
	return p.sources
}

// Table merges all parsed tables into one.
//
// Tables are appended in file order. Tables whose columns differ from the first
// one are skipped with a warning.
func (p *TableParser) Table() *model.Table {
	if len(p.sources) == 0 {
		return &model.Table{}
	}

	first := p.sources[0]
	merged := &model.Table{
		Columns: slices.Clone(first.Columns),
	}

	var withIdentities bool
	for _, source := range p.sources {
		if len(source.Identities) > 0 {
			withIdentities = true

			break
		}
	}

	for _, source := range p.sources {
		if !sameColumns(first.Columns, source.Columns) {
			p.l.Warn("input skipped: columns differ from the first input",
				slog.String("file", source.File),
				slog.String("first_file", first.File),
			)

			continue
		}

		merged.Rows = append(merged.Rows, source.Rows...)

		if withIdentities {
			identities := make([]string, len(source.Rows))
			copy(identities, source.Identities)
			merged.Identities = append(merged.Identities, identities...)
		}
	}

	return merged
}

// applyRoles tags the columns named in the configuration with their role.
//
// When the configuration tags columns, the table is narrowed to the tagged columns, in
// configuration order. Tables that carry their own role tags are left untouched.
func (p *TableParser) applyRoles(table model.Table) model.Table {
	if p.config == nil || !p.config.HasColumnRoles() || len(table.Columns) == 0 || table.Columns[0].HasRoles() {
		return table
	}

	positions := make(map[string]int, len(table.Columns))
	for i, column := range table.Columns {
		if _, dup := positions[column.DisplayName]; !dup {
			positions[column.DisplayName] = i
		}
	}

	var (
		columns []model.Column
		picked  []int
	)

	for _, column := range p.config.Columns {
		pos, ok := positions[column.Name]
		if !ok {
			p.l.Warn("configured column not found in input",
				slog.String("column", column.Name),
				slog.String("role", column.Role.String()),
			)

			continue
		}

		columns = append(columns, model.Column{
			DisplayName: column.Name,
			Roles:       map[model.Role]bool{column.Role: true},
		})
		picked = append(picked, pos)
	}

	if len(columns) == 0 {
		p.l.Warn("no configured column found in input, reading columns by position")

		return table
	}

	rows := make([][]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		projected := make([]any, len(picked))
		for i, pos := range picked {
			if pos < len(row) {
				projected[i] = row[pos]
			}
		}
		rows = append(rows, projected)
	}

	return model.Table{
		Columns:    columns,
		Rows:       rows,
		Identities: table.Identities,
	}
}

func sameColumns(a, b []model.Column) bool {
	return slices.EqualFunc(a, b, func(x, y model.Column) bool {
		return x.DisplayName == y.DisplayName
	})
}
