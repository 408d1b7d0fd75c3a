// Package normalizer turns a host table into a uniform sequence of typed points.
package normalizer

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/fredbi/hexbinviz/internal/pkg/model"
	"github.com/google/uuid"
)

const missing = -1

// Normalizer maps the columns of a [model.Table] onto the roles of a scatterplot point.
type Normalizer struct {
	options
}

// New builds a [Normalizer].
func New(opts ...Option) *Normalizer {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "normalizer"))

	return &Normalizer{
		options: o,
	}
}

// Index holds the position of the column resolved for each role, or -1 when absent.
type Index struct {
	Category int
	X        int
	Y        int
	Value    int
}

// Normalize produces one [model.Point] per row of the table, in row order.
//
// An empty table yields an empty dataset. Cells that cannot be read as numbers
// never fail the pass: coordinates default to 0 and values to the default value.
func (n *Normalizer) Normalize(table *model.Table) model.Dataset {
	if table.IsEmpty() {
		return model.Dataset{Points: []model.Point{}}
	}

	index := ResolveColumns(table.Columns)
	if index.X == missing || index.Y == missing {
		n.l.Warn("coordinate column not found, defaulting to 0",
			slog.Bool("has_x", index.X != missing),
			slog.Bool("has_y", index.Y != missing),
		)
	}

	dataset := model.Dataset{
		Points: make([]model.Point, 0, len(table.Rows)),
		Names: model.Names{
			Category: displayName(table.Columns, index.Category),
			X:        displayName(table.Columns, index.X),
			Y:        displayName(table.Columns, index.Y),
			Value:    displayName(table.Columns, index.Value),
		},
	}

	ordinals := make(map[string]int)
	var coerced int

	for r, row := range table.Rows {
		category := model.Label(cell(row, index.Category))

		x, okX := n.coordinate(row, index.X)
		y, okY := n.coordinate(row, index.Y)
		if !okX || !okY {
			coerced++
		}

		value, ok := model.Number(cell(row, index.Value))
		if !ok {
			value = n.defaultValue
		}

		dataset.Points = append(dataset.Points, model.Point{
			Category: category,
			X:        x,
			Y:        y,
			Value:    value,
			Identity: n.identity(table, r, category, ordinals),
		})
	}

	if coerced > 0 {
		n.l.Warn("non-numeric coordinates defaulted to 0", slog.Int("rows", coerced))
	}

	n.l.Info("points normalized",
		slog.Int("points", len(dataset.Points)),
		slog.Bool("by_role", table.Columns[0].HasRoles()),
		slog.Bool("has_value", index.Value != missing),
	)

	return dataset
}

// ResolveColumns locates the column of each role.
//
// When the first column carries role tags, every role is looked up by tag. Otherwise
// columns are taken in positional order [category, x, y, value], the value column
// being optional.
func ResolveColumns(columns []model.Column) Index {
	index := Index{Category: missing, X: missing, Y: missing, Value: missing}
	if len(columns) == 0 {
		return index
	}

	if !columns[0].HasRoles() {
		positions := []*int{&index.Category, &index.X, &index.Y, &index.Value}
		for i := range min(len(columns), len(positions)) {
			*positions[i] = i
		}

		return index
	}

	for i, column := range columns {
		for role, tagged := range column.Roles {
			if !tagged {
				continue
			}

			switch role {
			case model.RoleCategory:
				index.Category = first(index.Category, i)
			case model.RoleX:
				index.X = first(index.X, i)
			case model.RoleY:
				index.Y = first(index.Y, i)
			case model.RoleValue:
				index.Value = first(index.Value, i)
			}
		}
	}

	return index
}

func (n *Normalizer) coordinate(row []any, pos int) (float64, bool) {
	if pos == missing {
		return 0, true
	}

	v, ok := model.Number(cell(row, pos))
	if !ok {
		return 0, false
	}

	return v, true
}

// identity returns the host identity of the row if any, or a name-based UUID
// derived from the content of the row.
//
// The rank only tells apart rows with identical content.
func (n *Normalizer) identity(table *model.Table, row int, category string, ordinals map[string]int) model.Identity {
	if row < len(table.Identities) && table.Identities[row] != "" {
		return model.Identity(table.Identities[row])
	}

	key := contentKey(category, table.Rows[row])
	rank := ordinals[key]
	ordinals[key] = rank + 1

	return model.Identity(uuid.NewSHA1(uuid.NameSpaceOID, []byte(key+"\x00"+strconv.Itoa(rank))).String())
}

func contentKey(category string, row []any) string {
	var b strings.Builder
	b.WriteString(category)

	for _, c := range row {
		b.WriteByte('\x1f')
		b.WriteString(model.Label(c))
	}

	return b.String()
}

func cell(row []any, pos int) any {
	if pos < 0 || pos >= len(row) {
		return nil
	}

	return row[pos]
}

func displayName(columns []model.Column, pos int) string {
	if pos < 0 || pos >= len(columns) {
		return ""
	}

	return columns[pos].DisplayName
}

func first(current, candidate int) int {
	if current != missing {
		return current
	}

	return candidate
}
