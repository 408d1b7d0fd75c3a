package model

import (
	"strconv"
)

// Role tags a column of a [Table] with its logical meaning for the scatterplot.
type Role string

// Supported data roles.
const (
	RoleCategory Role = "Category"
	RoleX        Role = "X"
	RoleY        Role = "Y"
	RoleValue    Role = "Value"
)

// String returns the role name as a plain string.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the role is one of the known data roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCategory, RoleX, RoleY, RoleValue:
		return true
	default:
		return false
	}
}

// AllRoles returns all known data roles, in positional order.
func AllRoles() []Role {
	return []Role{
		RoleCategory,
		RoleX,
		RoleY,
		RoleValue,
	}
}

// Column describes a column of a [Table].
//
// Roles may be empty: in that case columns are consumed in positional order.
type Column struct {
	DisplayName string        `json:"displayName"`
	Roles       map[Role]bool `json:"roles,omitempty"`
}

// HasRoles reports whether the column carries any role tag.
func (c Column) HasRoles() bool {
	return len(c.Roles) > 0
}

// Table is the tabular data slice delivered by the host on every update cycle.
//
// Cells are either nil, strings, numbers or booleans. Identities, when present,
// carry the host's category identity for each row, in row order.
type Table struct {
	Columns    []Column `json:"columns"`
	Rows       [][]any  `json:"rows"`
	Identities []string `json:"identities,omitempty"`
}

// IsEmpty reports whether the table holds no row or no column.
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// Identity is an opaque selection token correlating a rendered element with its source row.
type Identity string

// Point is a normalized data row.
type Point struct {
	Category string
	X        float64
	Y        float64
	Value    float64
	Identity Identity
}

// Dataset is the output of a normalization pass: the points and the display names
// of the columns they were read from.
type Dataset struct {
	Points []Point
	Names  Names
}

// Names holds the display names of the columns resolved for each role.
//
// A name is empty when the corresponding column is absent.
type Names struct {
	Category string
	X        string
	Y        string
	Value    string
}

// BinKey is the axial coordinate of a hexagonal bin. It identifies a bin within a pass.
type BinKey struct {
	I int
	J int
}

// String renders the key as "{i}-{j}".
func (k BinKey) String() string {
	return strconv.Itoa(k.I) + "-" + strconv.Itoa(k.J)
}

// Bin is a hexagonal cell with the points it aggregates.
//
// X and Y locate the centroid of the hexagon in screen space.
type Bin struct {
	Key     BinKey
	X       float64
	Y       float64
	Members []Point
	Stats   BinStats
}

// BinStats holds summary statistics over the members of a [Bin].
//
// XMean and YMean are computed over data-space coordinates.
type BinStats struct {
	Count       int
	ValueSum    float64
	ValueMean   float64
	ValueMedian float64
	ValueMin    float64
	ValueMax    float64
	XMean       float64
	YMean       float64
}

// Viewport is the pixel size of the drawing surface.
type Viewport struct {
	Width  float64
	Height float64
}

// Margin reserves space around the plot area, in pixels.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}
