package workbook

import (
	"fmt"
	"strconv"
	"time"
)

// Cell holds the cached value of a worksheet cell. Value is one of nil, string,
// float64, int64, bool or time.Time. Fill is an optional "#RRGGBB" background
// colour read from the source document.
type Cell struct {
	Value any
	Fill  string
}

func (c Cell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}

	if s, ok := c.Value.(string); ok {
		return s == ""
	}

	return false
}

// String returns the natural display form of the cell value: numbers without
// any number format applied, text verbatim and "" for an empty cell.
func (c Cell) String() string {
	return Format(c.Value)
}

func Format(v any) string {
	switch value := v.(type) {
	case nil:
		return ""

	case string:
		return value

	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)

	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)

	case int:
		return strconv.Itoa(value)

	case int64:
		return strconv.FormatInt(value, 10)

	case bool:
		if value {
			return "TRUE"
		}
		return "FALSE"

	case time.Time:
		if value.Hour() == 0 && value.Minute() == 0 && value.Second() == 0 {
			return value.Format("2006-01-02")
		}
		return value.Format("2006-01-02 15:04:05")

	default:
		return fmt.Sprintf("%v", v)
	}
}
