package parser

import (
	"slices"

	"github.com/aclements/go-moremath/stats"
	"github.com/fredbi/hexbinviz/internal/pkg/model"
)

// ParsingReport allows to inspect the contents of parsed inputs.
type ParsingReport struct {
	Format        string         `json:"format"`
	AnalyzedFiles []string       `json:"analyzed_files"`
	Environments  []string       `json:"environments,omitempty"`
	Rows          int            `json:"rows"`
	Columns       []ColumnReport `json:"columns"`
}

// ColumnReport describes a column of the parsed inputs.
type ColumnReport struct {
	Name    string       `json:"name"`
	Roles   []model.Role `json:"roles,omitempty"`
	Count   int          `json:"numeric_count"`
	Min     float64      `json:"min_value"`
	Max     float64      `json:"max_value"`
	Origins []string     `json:"origin_files"`
}

// Report produces a [ParsingReport], which allows for closer inspection of the content
// of parsed input.
func (p *TableParser) Report() ParsingReport {
	r := ParsingReport{
		Format: p.format.String(),
	}
	seenColumns := make(map[string]int)
	numbers := make(map[string][]float64)

	for _, source := range p.sources {
		if !slices.Contains(r.AnalyzedFiles, source.File) {
			r.AnalyzedFiles = append(r.AnalyzedFiles, source.File)
		}

		if source.Environment != "" && !slices.Contains(r.Environments, source.Environment) {
			r.Environments = append(r.Environments, source.Environment)
		}

		r.Rows += len(source.Rows)

		for i, column := range source.Columns {
			idx, seen := seenColumns[column.DisplayName]
			if !seen {
				idx = len(r.Columns)
				seenColumns[column.DisplayName] = idx
				r.Columns = append(r.Columns, ColumnReport{
					Name:  column.DisplayName,
					Roles: roleList(column),
				})
			}

			if !slices.Contains(r.Columns[idx].Origins, source.File) {
				r.Columns[idx].Origins = append(r.Columns[idx].Origins, source.File)
			}

			for _, row := range source.Rows {
				if i >= len(row) {
					continue
				}

				if v, ok := model.Number(row[i]); ok {
					numbers[column.DisplayName] = append(numbers[column.DisplayName], v)
				}
			}
		}
	}

	for i, column := range r.Columns {
		values := numbers[column.Name]
		if len(values) == 0 {
			continue
		}

		r.Columns[i].Count = len(values)
		r.Columns[i].Min, r.Columns[i].Max = stats.Bounds(values)
	}

	return r
}

func roleList(column model.Column) []model.Role {
	var roles []model.Role
	for _, role := range model.AllRoles() {
		if column.Roles[role] {
			roles = append(roles, role)
		}
	}

	return roles
}
