package workbook

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRange is an inclusive rectangle of cells, 1-indexed.
type CellRange struct {
	MinCol int
	MinRow int
	MaxCol int
	MaxRow int
}

var cellRefRe = regexp.MustCompile(`^([A-Za-z]{1,3})([0-9]{1,7})$`)

// ParseRange parses an expression like "A1:H33" (or "$A$1:$H$33", or a single
// cell "C3"). Reversed corners are normalised so that Min <= Max always holds.
func ParseRange(expr string) (CellRange, error) {
	s := strings.ReplaceAll(strings.TrimSpace(expr), "$", "")
	if s == "" {
		return CellRange{}, &RangeError{Expr: expr, Reason: "empty expression"}
	}

	from, to, found := strings.Cut(s, ":")
	if !found {
		to = from
	} else if strings.Contains(to, ":") {
		return CellRange{}, &RangeError{Expr: expr, Reason: "expected exactly two corners"}
	}

	c1, r1, err := parseRef(from)
	if err != nil {
		return CellRange{}, &RangeError{Expr: expr, Reason: err.Error()}
	}

	c2, r2, err := parseRef(to)
	if err != nil {
		return CellRange{}, &RangeError{Expr: expr, Reason: err.Error()}
	}

	return CellRange{
		MinCol: min(c1, c2),
		MinRow: min(r1, r2),
		MaxCol: max(c1, c2),
		MaxRow: max(r1, r2),
	}, nil
}

// ParseAddress splits a sheet qualified address like "'Night Shift'!A1:H33" into
// the sheet name and the parsed range.
func ParseAddress(address string) (string, CellRange, error) {
	ix := strings.LastIndex(address, "!")
	if ix < 0 {
		return "", CellRange{}, &RangeError{Expr: address, Reason: "missing sheet name (expected e.g. 'Morning!A1:H33')"}
	}

	sheet := strings.TrimSpace(address[:ix])
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	if sheet == "" {
		return "", CellRange{}, &RangeError{Expr: address, Reason: "empty sheet name"}
	}

	rng, err := ParseRange(address[ix+1:])
	if err != nil {
		return "", CellRange{}, err
	}

	return sheet, rng, nil
}

func parseRef(ref string) (int, int, error) {
	if !cellRefRe.MatchString(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}

	col, row, err := excelize.CellNameToCoordinates(strings.ToUpper(ref))
	if err != nil {
		return 0, 0, err
	}

	if col < 1 || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}

	return col, row, nil
}

func (r CellRange) Cols() int {
	return r.MaxCol - r.MinCol + 1
}

func (r CellRange) Rows() int {
	return r.MaxRow - r.MinRow + 1
}

// Contains returns true if the 1-indexed (row, col) lies inside the range.
func (r CellRange) Contains(row, col int) bool {
	return row >= r.MinRow && row <= r.MaxRow && col >= r.MinCol && col <= r.MaxCol
}

func (r CellRange) String() string {
	from, _ := excelize.CoordinatesToCellName(r.MinCol, r.MinRow)
	to, _ := excelize.CoordinatesToCellName(r.MaxCol, r.MaxRow)

	if from == to {
		return from
	}

	return from + ":" + to
}

// FormatAddress builds a sheet qualified address, quoting the sheet name when needed.
func FormatAddress(sheet string, r CellRange) string {
	if strings.ContainsAny(sheet, " '!-") {
		return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + r.String()
	}

	return sheet + "!" + r.String()
}
