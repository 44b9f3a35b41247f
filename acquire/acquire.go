// Package acquire fetches the planning workbook from wherever it is kept: a local file,
// Google Drive (uploaded xlsx/xlsm or a native Google Sheets spreadsheet) or SharePoint.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dailyplan/dailyplan/workbook"
)

// ErrAcquisition is matched by errors.Is for every failure to fetch or decode a workbook.
var ErrAcquisition = errors.New("acquisition failure")

// Source is a remote (or local) workbook location.
type Source interface {
	Name() string
	// Fetch downloads and decodes the current revision of the workbook.
	Fetch(ctx context.Context) (*workbook.Workbook, error)
	// Version returns an opaque identifier that changes whenever the workbook changes.
	// An empty version means the source cannot tell.
	Version(ctx context.Context) (string, error)
}

// Error wraps the cause of a failed acquisition with the source and operation.
type Error struct {
	Source string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failed (%v)", e.Source, e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrAcquisition, e.Err}
}

func fail(source, op string, err error) error {
	return &Error{Source: source, Op: op, Err: err}
}

// maxDocumentSize bounds downloads: the planning workbook is a few hundred KB.
const maxDocumentSize = 64 << 20

func readBody(rs *http.Response) ([]byte, error) {
	defer rs.Body.Close()

	if rs.StatusCode < 200 || rs.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(rs.Body, 512))
		return nil, fmt.Errorf("%s %s", rs.Status, msg)
	}

	data, err := io.ReadAll(io.LimitReader(rs.Body, maxDocumentSize+1))
	if err != nil {
		return nil, err
	}

	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}

	return data, nil
}
