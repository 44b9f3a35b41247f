// Package workbook implements the read-only spreadsheet model rendered by the dashboard,
// together with the loaders that build it from xlsx/xlsm (optionally encrypted) and xlsb
// documents.
package workbook

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workbook is an in-memory set of uniquely (and case-sensitively) named sheets.
type Workbook struct {
	// Name is the document file name, e.g. "Plan.xlsm".
	Name string
	// Version identifies the revision of the source document, when known.
	Version string

	sheets   []*Sheet
	index    map[string]*Sheet
	document []byte
}

// Sheet is a sparse grid of cells addressed by 1-indexed (row, column).
type Sheet struct {
	Name string

	cells  map[coord]Cell
	maxRow int
	maxCol int
}

type coord struct {
	row int
	col int
}

func New(name string) *Workbook {
	return &Workbook{
		Name:  name,
		index: map[string]*Sheet{},
	}
}

// AddSheet returns the sheet with the given name, creating it if necessary.
func (wb *Workbook) AddSheet(name string) *Sheet {
	if sheet, ok := wb.index[name]; ok {
		return sheet
	}

	sheet := &Sheet{
		Name:  name,
		cells: map[coord]Cell{},
	}

	wb.sheets = append(wb.sheets, sheet)
	wb.index[name] = sheet

	return sheet
}

// Sheet looks up a sheet by exact name.
func (wb *Workbook) Sheet(name string) (*Sheet, error) {
	if sheet, ok := wb.index[name]; ok {
		return sheet, nil
	}

	return nil, &SheetNotFoundError{Workbook: wb.Name, Sheet: name}
}

// SheetNames returns the sheet names in document order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, 0, len(wb.sheets))
	for _, sheet := range wb.sheets {
		names = append(names, sheet.Name)
	}

	return names
}

func (wb *Workbook) Sheets() []*Sheet {
	return wb.sheets
}

// Document returns the decrypted source document. Workbooks built from values only
// (e.g. from the Google Sheets API) are serialised to xlsx on demand.
func (wb *Workbook) Document() ([]byte, error) {
	if wb.document != nil {
		return wb.document, nil
	}

	document, err := synthesise(wb)
	if err != nil {
		return nil, fmt.Errorf("error creating xlsx document for %s (%w)", wb.Name, err)
	}

	wb.document = document

	return document, nil
}

// DocumentExt returns the file extension matching Document(), e.g. ".xlsm".
func (wb *Workbook) DocumentExt() string {
	if wb.document != nil {
		switch ext := strings.ToLower(filepath.Ext(wb.Name)); ext {
		case ".xlsx", ".xlsm", ".xlsb":
			return ext
		}
	}

	return ".xlsx"
}

// SetDocument records the source bytes the workbook was loaded from.
func (wb *Workbook) SetDocument(document []byte) {
	wb.document = bytes.Clone(document)
}

func (s *Sheet) Cell(row, col int) Cell {
	return s.cells[coord{row, col}]
}

// Set stores a cell. Empty cells are not stored.
func (s *Sheet) Set(row, col int, cell Cell) {
	if row < 1 || col < 1 {
		return
	}

	k := coord{row, col}
	if cell.IsEmpty() && cell.Fill == "" {
		delete(s.cells, k)
		return
	}

	s.cells[k] = cell
	s.maxRow = max(s.maxRow, row)
	s.maxCol = max(s.maxCol, col)
}

// Dimensions returns the used area of the sheet, or false if the sheet is empty.
func (s *Sheet) Dimensions() (CellRange, bool) {
	if len(s.cells) == 0 {
		return CellRange{}, false
	}

	return CellRange{MinCol: 1, MinRow: 1, MaxCol: s.maxCol, MaxRow: s.maxRow}, true
}

// Values returns the cells of rng in row-major order.
func (s *Sheet) Values(rng CellRange) [][]Cell {
	rows := make([][]Cell, 0, rng.Rows())
	for r := rng.MinRow; r <= rng.MaxRow; r++ {
		row := make([]Cell, 0, rng.Cols())
		for c := rng.MinCol; c <= rng.MaxCol; c++ {
			row = append(row, s.Cell(r, c))
		}

		rows = append(rows, row)
	}

	return rows
}

// Open loads the workbook at path, decrypting it with password if it is encrypted.
func Open(path string, password string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Read(filepath.Base(path), data, password)
}

// Read loads a workbook from the document bytes. The format is chosen from the name's
// extension and the document signature.
func Read(name string, data []byte, password string) (*Workbook, error) {
	switch {
	case strings.EqualFold(filepath.Ext(name), ".xlsb"):
		return readXLSB(name, data)

	case isCompoundDocument(data) && password == "":
		return nil, fmt.Errorf("%s: %w (or is a legacy .xls document) - a password is required", name, ErrEncrypted)

	default:
		return readExcel(name, data, password)
	}
}

// D0 CF 11 E0 A1 B1 1A E1: OLE2 compound file, used for encrypted OOXML and legacy .xls
var cfbSignature = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

func isCompoundDocument(data []byte) bool {
	return bytes.HasPrefix(data, cfbSignature)
}
