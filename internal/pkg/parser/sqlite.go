package parser

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fredbi/hexbinviz/internal/pkg/model"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// parseSQLite runs the configured query against a SQLite database file.
//
// Result columns become table columns. BLOB and TEXT values are read as strings.
func (p *TableParser) parseSQLite(ctx context.Context, file string) (Source, error) {
	if p.query == "" {
		return Source{}, fmt.Errorf("input file %q: a query is required for format %q", file, p.format)
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return Source{}, fmt.Errorf("opening sqlite database %q: %w", file, err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err = db.PingContext(ctx); err != nil {
		return Source{}, fmt.Errorf("opening sqlite database %q: %w", file, err)
	}

	rows, err := db.QueryContext(ctx, p.query)
	if err != nil {
		return Source{}, fmt.Errorf("querying sqlite database %q: %w", file, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	names, err := rows.Columns()
	if err != nil {
		return Source{}, fmt.Errorf("querying sqlite database %q: %w", file, err)
	}

	table := model.Table{
		Columns: make([]model.Column, 0, len(names)),
	}
	for _, name := range names {
		table.Columns = append(table.Columns, model.Column{DisplayName: name})
	}

	for rows.Next() {
		values := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return Source{}, fmt.Errorf("scanning sqlite row: %w", err)
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		table.Rows = append(table.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return Source{}, fmt.Errorf("reading sqlite rows: %w", err)
	}

	p.l.Debug("sqlite query executed", slog.String("file", file), slog.Int("rows", len(table.Rows)))

	return Source{
		Table:  p.applyRoles(table),
		Format: p.format,
	}, nil
}
