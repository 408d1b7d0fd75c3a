package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// parseJSON reads either a host data view or an array of records.
//
// A data view is an object shaped like a [model.Table]:
//
//	{"columns": [{"displayName": "x", "roles": {"X": true}}], "rows": [[1]], "identities": ["a"]}
//
// Records are flat objects. Their keys become columns, in order of first appearance.
func (p *TableParser) parseJSON(r io.Reader) (Source, error) {
	reader := bufio.NewReader(r)

	first, err := peekNonSpace(reader)
	if errors.Is(err, io.EOF) {
		return Source{}, nil
	}
	if err != nil {
		return Source{}, fmt.Errorf("reading json: %w", err)
	}

	switch first {
	case '{':
		var table model.Table
		if err := json.NewDecoder(reader).Decode(&table); err != nil {
			return Source{}, fmt.Errorf("decoding json data view: %w", err)
		}

		return Source{Table: table}, nil
	case '[':
		table, err := decodeRecords(json.NewDecoder(reader))
		if err != nil {
			return Source{}, fmt.Errorf("decoding json records: %w", err)
		}

		return Source{Table: table}, nil
	default:
		return Source{}, fmt.Errorf("unexpected json input: should start with '{' or '[', got %q", first)
	}
}

func decodeRecords(dec *json.Decoder) (model.Table, error) {
	var table model.Table
	positions := make(map[string]int)

	if _, err := dec.Token(); err != nil { // [
		return table, err
	}

	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return table, err
		}

		record := make(map[int]any)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return table, err
			}

			key, ok := tok.(string)
			if !ok {
				return table, fmt.Errorf("expected an object key, got %v", tok)
			}

			var value any
			if err := dec.Decode(&value); err != nil {
				return table, err
			}

			pos, seen := positions[key]
			if !seen {
				pos = len(table.Columns)
				positions[key] = pos
				table.Columns = append(table.Columns, model.Column{DisplayName: key})
			}
			record[pos] = recordCell(value)
		}

		if err := expectDelim(dec, '}'); err != nil {
			return table, err
		}

		table.Rows = append(table.Rows, record2Row(record))
	}

	if err := expectDelim(dec, ']'); err != nil {
		return table, err
	}

	// earlier rows may be shorter than the final set of columns
	for i, row := range table.Rows {
		if len(row) < len(table.Columns) {
			table.Rows[i] = append(row, make([]any, len(table.Columns)-len(row))...)
		}
	}

	return table, nil
}

func record2Row(record map[int]any) []any {
	var width int
	for pos := range record {
		width = max(width, pos+1)
	}

	row := make([]any, width)
	for pos, v := range record {
		row[pos] = v
	}

	return row
}

// recordCell keeps scalars and renders nested values as JSON text.
func recordCell(value any) any {
	switch value.(type) {
	case nil, string, float64, bool:
		return value
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil
		}

		return string(b)
	}
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}

	return nil
}

func peekNonSpace(r *bufio.Reader) (rune, error) {
	for {
		c, _, err := r.ReadRune()
		if err != nil {
			return 0, err
		}

		if !unicode.IsSpace(c) {
			return c, r.UnreadRune()
		}
	}
}
