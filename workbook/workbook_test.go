package workbook

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestSheetLookup(t *testing.T) {
	wb := New("Plan.xlsm")
	wb.AddSheet("Morning")
	wb.AddSheet("Evening")

	if _, err := wb.Sheet("Morning"); err != nil {
		t.Fatalf("Unexpected error returned from Sheet (%v)", err)
	}

	_, err := wb.Sheet("morning")
	if !errors.Is(err, ErrSheetNotFound) {
		t.Fatalf("Expected ErrSheetNotFound for case-mismatched sheet name, got %v", err)
	}

	var notFound *SheetNotFoundError
	if !errors.As(err, &notFound) || notFound.Sheet != "morning" {
		t.Errorf("Expected *SheetNotFoundError for 'morning', got %#v", err)
	}

	if names := wb.SheetNames(); !reflect.DeepEqual(names, []string{"Morning", "Evening"}) {
		t.Errorf("Incorrect sheet names - got:%v", names)
	}

	if s := wb.AddSheet("Morning"); s != wb.Sheets()[0] {
		t.Errorf("AddSheet created a duplicate sheet")
	}
}

func TestSheetValues(t *testing.T) {
	sheet := New("test").AddSheet("Night")
	sheet.Set(1, 1, Cell{Value: "Name"})
	sheet.Set(2, 2, Cell{Value: 12.5})
	sheet.Set(3, 1, Cell{})

	expected := [][]Cell{
		{{Value: "Name"}, {}},
		{{}, {Value: 12.5}},
	}

	values := sheet.Values(CellRange{MinCol: 1, MinRow: 1, MaxCol: 2, MaxRow: 2})
	if !reflect.DeepEqual(values, expected) {
		t.Errorf("Incorrect values\n   expected:%v\n   got:     %v", expected, values)
	}

	dim, ok := sheet.Dimensions()
	if !ok || !reflect.DeepEqual(dim, CellRange{MinCol: 1, MinRow: 1, MaxCol: 2, MaxRow: 2}) {
		t.Errorf("Incorrect dimensions - got:%v", dim)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, ""},
		{"Bob", "Bob"},
		{"  padded ", "  padded "},
		{float64(42), "42"},
		{3.25, "3.25"},
		{0.1, "0.1"},
		{int64(-7), "-7"},
		{true, "TRUE"},
		{false, "FALSE"},
	}

	for _, test := range tests {
		if s := (Cell{Value: test.value}).String(); s != test.expected {
			t.Errorf("Incorrect display form for %#v - expected:%q, got:%q", test.value, test.expected, s)
		}
	}
}

func TestReadExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Morning")
	f.NewSheet("Evening")
	f.SetCellValue("Morning", "A1", "Morning Shift")
	f.SetCellValue("Morning", "B2", 42)
	f.SetCellValue("Morning", "C3", 3.5)
	f.SetCellValue("Morning", "D4", true)
	f.SetCellValue("Evening", "H33", "last")

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}},
	})
	if err != nil {
		t.Fatalf("error creating style (%v)", err)
	}

	f.SetCellStyle("Morning", "A1", "A1", style)

	path := filepath.Join(t.TempDir(), "Plan.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("error saving workbook (%v)", err)
	}

	wb, err := Open(path, "")
	if err != nil {
		t.Fatalf("Unexpected error returned from Open (%v)", err)
	}

	if wb.Name != "Plan.xlsx" {
		t.Errorf("Incorrect workbook name - got:%v", wb.Name)
	}

	if !reflect.DeepEqual(wb.SheetNames(), []string{"Morning", "Evening"}) {
		t.Errorf("Incorrect sheet names - got:%v", wb.SheetNames())
	}

	morning, err := wb.Sheet("Morning")
	if err != nil {
		t.Fatalf("Unexpected error returned from Sheet (%v)", err)
	}

	tests := []struct {
		row, col int
		expected any
	}{
		{1, 1, "Morning Shift"},
		{2, 2, float64(42)},
		{3, 3, 3.5},
		{4, 4, true},
		{5, 5, nil},
	}

	for _, test := range tests {
		if v := morning.Cell(test.row, test.col).Value; !reflect.DeepEqual(v, test.expected) {
			t.Errorf("Incorrect value at (%v,%v) - expected:%#v, got:%#v", test.row, test.col, test.expected, v)
		}
	}

	if fill := morning.Cell(1, 1).Fill; fill != "#ffff00" {
		t.Errorf("Incorrect fill - expected:%v, got:%v", "#ffff00", fill)
	}

	evening, _ := wb.Sheet("Evening")
	if v := evening.Cell(33, 8).String(); v != "last" {
		t.Errorf("Incorrect value at H33 - got:%q", v)
	}

	document, err := wb.Document()
	if err != nil {
		t.Fatalf("Unexpected error returned from Document (%v)", err)
	}

	original, _ := os.ReadFile(path)
	if !bytes.Equal(document, original) {
		t.Errorf("Document() does not return the source document")
	}
}

func TestReadEncryptedWithoutPassword(t *testing.T) {
	data := append([]byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}, make([]byte, 504)...)

	if _, err := Read("Plan.xlsm", data, ""); !errors.Is(err, ErrEncrypted) {
		t.Errorf("Expected ErrEncrypted, got %v", err)
	}
}

func TestReadInvalidDocument(t *testing.T) {
	if _, err := Read("Plan.xlsx", []byte("not a spreadsheet"), ""); err == nil {
		t.Errorf("Expected error reading invalid document")
	}
}

func TestDocumentSynthesis(t *testing.T) {
	wb := New("Plan")
	morning := wb.AddSheet("Morning")
	morning.Set(1, 1, Cell{Value: "Morning Shift"})
	morning.Set(33, 8, Cell{Value: 7.0})
	wb.AddSheet("Evening").Set(2, 3, Cell{Value: "Alice"})

	document, err := wb.Document()
	if err != nil {
		t.Fatalf("Unexpected error returned from Document (%v)", err)
	}

	if ext := wb.DocumentExt(); ext != ".xlsx" {
		t.Errorf("Incorrect document extension - got:%v", ext)
	}

	reloaded, err := Read("Plan.xlsx", document, "")
	if err != nil {
		t.Fatalf("Unexpected error reading synthesised document (%v)", err)
	}

	if !reflect.DeepEqual(reloaded.SheetNames(), []string{"Morning", "Evening"}) {
		t.Errorf("Incorrect sheet names - got:%v", reloaded.SheetNames())
	}

	sheet, _ := reloaded.Sheet("Morning")
	if v := sheet.Cell(33, 8).Value; !reflect.DeepEqual(v, 7.0) {
		t.Errorf("Incorrect value at H33 - got:%#v", v)
	}

	sheet, _ = reloaded.Sheet("Evening")
	if v := sheet.Cell(2, 3).String(); v != "Alice" {
		t.Errorf("Incorrect value at C2 - got:%q", v)
	}
}

func TestNormaliseColour(t *testing.T) {
	tests := map[string]string{
		"FFFF00":    "#ffff00",
		"#00FF00":   "#00ff00",
		"FF336699":  "#336699",
		"":          "",
		"red":       "",
		"#GGGGGG":   "",
		"123456789": "",
	}

	for colour, expected := range tests {
		if v := NormaliseColour(colour); v != expected {
			t.Errorf("Incorrect colour for %q - expected:%q, got:%q", colour, expected, v)
		}
	}
}

func TestWriteTSV(t *testing.T) {
	sheet := New("test").AddSheet("Morning")
	sheet.Set(1, 1, Cell{Value: "Name"})
	sheet.Set(1, 2, Cell{Value: "Hours"})
	sheet.Set(2, 1, Cell{Value: "Alice\tSmith"})
	sheet.Set(2, 2, Cell{Value: 7.5})

	var b bytes.Buffer
	if err := WriteTSV(&b, sheet, CellRange{MinCol: 1, MinRow: 1, MaxCol: 2, MaxRow: 10}); err != nil {
		t.Fatalf("Unexpected error returned from WriteTSV (%v)", err)
	}

	expected := "Name\tHours\nAlice Smith\t7.5\n"
	if b.String() != expected {
		t.Errorf("Incorrect TSV\n   expected:%q\n   got:     %q", expected, b.String())
	}

	b.Reset()
	sheet.Set(3, 1, Cell{Value: "Bob"})
	if err := WriteTSV(&b, sheet, CellRange{MinCol: 1, MinRow: 1, MaxCol: 8, MaxRow: 33}); err != nil {
		t.Fatalf("Unexpected error returned from WriteTSV (%v)", err)
	}

	expected = "Name\tHours\nAlice Smith\t7.5\nBob\t\n"
	if b.String() != expected {
		t.Errorf("Incorrect TSV for range wider than the data\n   expected:%q\n   got:     %q", expected, b.String())
	}

	if err := WriteTSV(&b, sheet, CellRange{MinCol: 5, MinRow: 5, MaxCol: 6, MaxRow: 6}); err == nil {
		t.Errorf("Expected error exporting empty range")
	}
}
