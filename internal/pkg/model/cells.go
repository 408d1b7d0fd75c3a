package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number coerces a table cell to a finite float64.
//
// Numbers of any width, numeric strings and booleans are accepted. It returns false
// for nil, empty strings, non-numeric strings, NaN and infinities.
func Number(cell any) (float64, bool) {
	var v float64

	switch c := cell.(type) {
	case nil:
		return 0, false
	case float64:
		v = c
	case float32:
		v = float64(c)
	case int:
		v = float64(c)
	case int8:
		v = float64(c)
	case int16:
		v = float64(c)
	case int32:
		v = float64(c)
	case int64:
		v = float64(c)
	case uint:
		v = float64(c)
	case uint8:
		v = float64(c)
	case uint16:
		v = float64(c)
	case uint32:
		v = float64(c)
	case uint64:
		v = float64(c)
	case bool:
		if c {
			v = 1
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0, false
		}
		v = f
	case []byte:
		return Number(string(c))
	default:
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// Label renders a table cell as a category label. nil renders as an empty string.
func Label(cell any) string {
	switch c := cell.(type) {
	case nil:
		return ""
	case string:
		return c
	case []byte:
		return string(c)
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
