package workbook

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

func readExcel(name string, data []byte, password string) (*Workbook, error) {
	document := data

	if isCompoundDocument(data) {
		decrypted, err := excelize.Decrypt(data, &excelize.Options{Password: password})
		if err != nil {
			return nil, fmt.Errorf("error decrypting %s (%w)", name, err)
		}

		document = decrypted
	}

	f, err := excelize.OpenReader(bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("error reading %s (%w)", name, err)
	}

	defer f.Close()

	wb := New(name)
	for _, sheetName := range f.GetSheetList() {
		if err := readExcelSheet(f, wb.AddSheet(sheetName)); err != nil {
			return nil, fmt.Errorf("error reading sheet %q from %s (%w)", sheetName, name, err)
		}
	}

	wb.SetDocument(document)

	return wb, nil
}

func readExcelSheet(f *excelize.File, sheet *Sheet) error {
	rows, err := f.GetRows(sheet.Name, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}

	fills := map[int]string{}

	for r, row := range rows {
		for c, raw := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			cell := Cell{}

			if raw != "" {
				cellType, err := f.GetCellType(sheet.Name, ref)
				if err != nil {
					return err
				}

				cell.Value = convert(cellType, raw)
			}

			if style, err := f.GetCellStyle(sheet.Name, ref); err == nil && style != 0 {
				fill, ok := fills[style]
				if !ok {
					fill = styleFill(f, style)
					fills[style] = fill
				}

				cell.Fill = fill
			}

			sheet.Set(r+1, c+1, cell)
		}
	}

	return nil
}

// convert maps the raw cached value of a cell to a typed value.
func convert(cellType excelize.CellType, raw string) any {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return norm.NFC.String(raw)

	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")

	default:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}

		return norm.NFC.String(raw)
	}
}

func styleFill(f *excelize.File, style int) string {
	s, err := f.GetStyle(style)
	if err != nil || s == nil {
		return ""
	}

	if s.Fill.Type != "pattern" || s.Fill.Pattern == 0 || len(s.Fill.Color) == 0 {
		return ""
	}

	return NormaliseColour(s.Fill.Color[0])
}

// NormaliseColour converts RGB and ARGB hex colours to "#rrggbb", returning "" for
// anything else.
func NormaliseColour(colour string) string {
	hex := strings.TrimPrefix(strings.TrimSpace(colour), "#")
	if len(hex) == 8 {
		hex = hex[2:]
	}

	if len(hex) != 6 {
		return ""
	}

	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return ""
	}

	return "#" + strings.ToLower(hex)
}

// synthesise serialises a values-only workbook to xlsx.
func synthesise(wb *Workbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range wb.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}

		for k, cell := range sheet.cells {
			if cell.Value == nil {
				continue
			}

			ref, err := excelize.CoordinatesToCellName(k.col, k.row)
			if err != nil {
				return nil, err
			}

			if err := f.SetCellValue(sheet.Name, ref, cell.Value); err != nil {
				return nil, err
			}
		}
	}

	b, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
