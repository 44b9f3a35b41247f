package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

const (
	XLSM         = "application/vnd.ms-excel.sheet.macroEnabled.12"
	XLSX         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	GOOGLE_SHEET = "application/vnd.google-apps.spreadsheet"
)

// GoogleDrive is a workbook file kept on Google Drive. Uploaded Excel files are
// downloaded as is; native Google Sheets spreadsheets are exported as xlsx.
type GoogleDrive struct {
	FileID   string
	Password string

	drive *drive.Service
	log   *log.Logger
}

func NewGoogleDrive(ctx context.Context, fileID string, password string, logger *log.Logger, opts ...option.ClientOption) (*GoogleDrive, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Google Drive client (%v)", err)
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &GoogleDrive{
		FileID:   fileID,
		Password: password,
		drive:    service,
		log:      logger,
	}, nil
}

func (g *GoogleDrive) Name() string {
	return "gdrive:" + g.FileID
}

func (g *GoogleDrive) Fetch(ctx context.Context) (*workbook.Workbook, error) {
	meta, err := g.metadata(ctx)
	if err != nil {
		return nil, fail(g.Name(), "fetch", err)
	}

	g.log.Debugf("Google Drive file %v  name:%q  mime-type:%v  modified:%v", meta.Id, meta.Name, meta.MimeType, meta.ModifiedTime)

	name := meta.Name
	var data []byte

	switch meta.MimeType {
	case GOOGLE_SHEET:
		rs, err := g.drive.Files.Export(g.FileID, XLSX).Context(ctx).Download()
		if err != nil {
			return nil, fail(g.Name(), "export", err)
		}

		if data, err = readBody(rs); err != nil {
			return nil, fail(g.Name(), "export", err)
		}

		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"

	default:
		if meta.MimeType != XLSM {
			g.log.Warnf("%v is not a macro-enabled Excel workbook (mime-type %v)", meta.Name, meta.MimeType)
		}

		rs, err := g.drive.Files.Get(g.FileID).SupportsAllDrives(true).Context(ctx).Download()
		if err != nil {
			return nil, fail(g.Name(), "download", err)
		}

		if data, err = readBody(rs); err != nil {
			return nil, fail(g.Name(), "download", err)
		}
	}

	wb, err := workbook.Read(name, data, g.Password)
	if err != nil {
		return nil, fail(g.Name(), "decode", err)
	}

	wb.Version = driveVersion(meta)

	g.log.Infof("Downloaded %v from Google Drive (%v bytes)", name, len(data))

	return wb, nil
}

func (g *GoogleDrive) Version(ctx context.Context) (string, error) {
	meta, err := g.metadata(ctx)
	if err != nil {
		return "", fail(g.Name(), "version", err)
	}

	return driveVersion(meta), nil
}

func (g *GoogleDrive) metadata(ctx context.Context) (*drive.File, error) {
	return g.drive.Files.
		Get(g.FileID).
		Fields("id, name, mimeType, modifiedTime, version, md5Checksum").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

func driveVersion(f *drive.File) string {
	if f.Md5Checksum != "" {
		return fmt.Sprintf("%d:%s", f.Version, f.Md5Checksum)
	}

	return fmt.Sprintf("%d", f.Version)
}
