package config

// ColorBy selects the per-bin statistic mapped onto the color gradient.
type ColorBy string

// Supported color statistics.
const (
	ColorBySum   ColorBy = "sum"
	ColorByCount ColorBy = "count"
)

// String returns the statistic name as a plain string.
func (c ColorBy) String() string {
	return string(c)
}

// IsValid reports whether the statistic is one of the known color statistics.
func (c ColorBy) IsValid() bool {
	switch c {
	case ColorBySum, ColorByCount:
		return true
	default:
		return false
	}
}

// AllColorBys returns all known color statistics.
func AllColorBys() []ColorBy {
	return []ColorBy{
		ColorBySum,
		ColorByCount,
	}
}

// Format identifies the encoding of input files.
type Format string

// Supported input formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatGoBench Format = "gobench"
	FormatSQLite  Format = "sqlite"
)

// String returns the format name as a plain string.
func (f Format) String() string {
	return string(f)
}

// IsValid reports whether the format is one of the known input formats.
func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatGoBench, FormatSQLite:
		return true
	default:
		return false
	}
}

// AllFormats returns all known input formats.
func AllFormats() []Format {
	return []Format{
		FormatCSV,
		FormatJSON,
		FormatGoBench,
		FormatSQLite,
	}
}
