package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteTSV writes the cells of rng as tab separated values, one record per row.
// Trailing empty rows and columns are omitted.
func WriteTSV(f io.Writer, sheet *Sheet, rng CellRange) error {
	values := sheet.Values(rng)

	last := len(values)
	for last > 0 && isBlank(values[last-1]) {
		last--
	}

	if last == 0 {
		return fmt.Errorf("%s!%s is empty", sheet.Name, rng)
	}

	width := 0
	for _, row := range values[:last] {
		for c := len(row); c > width; c-- {
			if !row[c-1].IsEmpty() {
				width = c
				break
			}
		}
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, row := range values[:last] {
		record := make([]string, 0, width)
		for _, cell := range row[:width] {
			record = append(record, clean(cell.String()))
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func isBlank(row []Cell) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}

	return true
}

func clean(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s))
}
