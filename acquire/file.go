package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/dailyplan/dailyplan/workbook"
)

// File is a workbook on the local filesystem, e.g. on a mounted share.
type File struct {
	Path     string
	Password string
}

func (f *File) Name() string {
	return "file:" + f.Path
}

func (f *File) Fetch(ctx context.Context) (*workbook.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, fail(f.Name(), "fetch", err)
	}

	version, err := f.Version(ctx)
	if err != nil {
		return nil, err
	}

	wb, err := workbook.Open(f.Path, f.Password)
	if err != nil {
		return nil, fail(f.Name(), "fetch", err)
	}

	wb.Version = version

	return wb, nil
}

// Version is derived from the file modification time and size.
func (f *File) Version(ctx context.Context) (string, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return "", fail(f.Name(), "version", err)
	}

	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}
