package workbook

import (
	"errors"
	"fmt"
)

// ErrSheetNotFound is matched by errors.Is for a failed sheet lookup.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrInvalidRange is matched by errors.Is for a malformed range expression.
var ErrInvalidRange = errors.New("invalid cell range")

// ErrEncrypted indicates a compound document was supplied without a password.
var ErrEncrypted = errors.New("workbook is encrypted")

// SheetNotFoundError reports a sheet name missing from a workbook.
type SheetNotFoundError struct {
	Workbook string
	Sheet    string
}

func (e *SheetNotFoundError) Error() string {
	if e.Workbook != "" {
		return fmt.Sprintf("sheet %q not found in workbook %q", e.Sheet, e.Workbook)
	}

	return fmt.Sprintf("sheet %q not found", e.Sheet)
}

func (e *SheetNotFoundError) Unwrap() error {
	return ErrSheetNotFound
}

// RangeError reports a range expression that could not be parsed.
type RangeError struct {
	Expr   string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid cell range %q: %s", e.Expr, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}
