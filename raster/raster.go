// Package raster turns a rectangular range of a worksheet into a PNG image.
//
// Three mechanisms are provided: Grid draws the cells itself, Exec delegates to a
// spreadsheet application snapshot utility and Service posts the document to an HTTP
// spreadsheet rendering engine. All of them validate the sheet name and the range before
// doing any work and never leave a partially written image behind.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/dailyplan/dailyplan/workbook"
)

// ErrRender is matched by errors.Is for failures producing or persisting an image.
var ErrRender = errors.New("render failure")

// ErrCanvasTooLarge is returned for ranges too large to draw.
var ErrCanvasTooLarge = fmt.Errorf("%w: range too large", ErrRender)

type Rasterizer interface {
	Name() string
	// Render draws sheet!rng of wb to a PNG file at path, replacing any existing file.
	Render(ctx context.Context, wb *workbook.Workbook, sheet string, rng string, path string) error
}

type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("error rendering %v (%v)", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

// resolve checks the sheet and range, returning the sheet and parsed range.
func resolve(wb *workbook.Workbook, sheet string, rng string) (*workbook.Sheet, workbook.CellRange, error) {
	s, err := wb.Sheet(sheet)
	if err != nil {
		return nil, workbook.CellRange{}, err
	}

	r, err := workbook.ParseRange(rng)
	if err != nil {
		return nil, workbook.CellRange{}, err
	}

	return s, r, nil
}

// WritePNG encodes img and atomically replaces the file at path.
func WritePNG(path string, img image.Image) error {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return &Error{Path: path, Err: err}
	}

	return writeFile(path, b.Bytes())
}

// writeFile writes to a temporary file in the destination directory and renames it over
// path, so readers only ever see a complete image.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return &Error{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".render-*.png")
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return &Error{Path: path, Err: err}
	}

	if err := tmp.Sync(); err != nil {
		return &Error{Path: path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return &Error{Path: path, Err: err}
	}

	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return &Error{Path: path, Err: err}
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return &Error{Path: path, Err: err}
	}

	return nil
}

// verify checks that data is a PNG image.
func verify(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image")
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("invalid image (%v)", err)
	} else if format != "png" {
		return fmt.Errorf("expected PNG image, got %v", format)
	}

	return nil
}
