package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// parseCSV reads a CSV document with a header row.
//
// Numeric cells are read as float64, empty cells as nil and anything else as a string.
func (p *TableParser) parseCSV(r io.Reader) (Source, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Source{}, nil
	}
	if err != nil {
		return Source{}, fmt.Errorf("reading csv header: %w", err)
	}

	table := model.Table{
		Columns: make([]model.Column, 0, len(header)),
	}
	for _, name := range header {
		table.Columns = append(table.Columns, model.Column{DisplayName: strings.TrimSpace(name)})
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Source{}, fmt.Errorf("reading csv: %w", err)
		}

		row := make([]any, len(table.Columns))
		for i := range min(len(record), len(row)) {
			row[i] = csvCell(record[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return Source{Table: table}, nil
}

func csvCell(field string) any {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}

	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return v
	}

	return field
}
