package workbook

import (
	"bytes"
	"fmt"

	xlsb "github.com/TsubasaBE/go-xlsb/workbook"
	"golang.org/x/text/unicode/norm"
)

func readXLSB(name string, data []byte) (*Workbook, error) {
	book, err := xlsb.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("error reading %s (%w)", name, err)
	}

	defer book.Close()

	wb := New(name)
	for i, sheetName := range book.Sheets() {
		ws, err := book.Sheet(i + 1)
		if err != nil {
			return nil, fmt.Errorf("error reading sheet %q from %s (%w)", sheetName, name, err)
		}

		sheet := wb.AddSheet(sheetName)
		for row := range ws.Rows(true) {
			for _, c := range row {
				var value any
				switch v := c.V.(type) {
				case nil:
				case string:
					value = norm.NFC.String(v)
				case float64, bool:
					value = v
				case int:
					value = float64(v)
				case int64:
					value = float64(v)
				default:
					value = fmt.Sprintf("%v", v)
				}

				sheet.Set(c.R+1, c.C+1, Cell{Value: value})
			}
		}
	}

	wb.SetDocument(data)

	return wb, nil
}
