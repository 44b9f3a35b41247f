package acquire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

// GoogleSheets reads the cell values of a native Google Sheets spreadsheet through the
// Sheets API. The workbook carries values only, so rendering through an application
// snapshot uses a synthesised xlsx document.
type GoogleSheets struct {
	SpreadsheetID string

	sheets *sheets.Service
	drive  *drive.Service
	log    *log.Logger
}

type revision struct {
	id       string
	modified time.Time
}

func NewGoogleSheets(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...option.ClientOption) (*GoogleSheets, error) {
	google, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	gdrive, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Google Drive client (%v)", err)
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &GoogleSheets{
		SpreadsheetID: spreadsheetID,
		sheets:        google,
		drive:         gdrive,
		log:           logger,
	}, nil
}

func (g *GoogleSheets) Name() string {
	return "gsheets:" + g.SpreadsheetID
}

func (g *GoogleSheets) Fetch(ctx context.Context) (*workbook.Workbook, error) {
	spreadsheet, err := g.sheets.Spreadsheets.Get(g.SpreadsheetID).Fields("properties.title", "sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fail(g.Name(), "fetch", fmt.Errorf("failed to fetch spreadsheet (%v)", err))
	}

	titles := []string{}
	ranges := []string{}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
			ranges = append(ranges, quote(sheet.Properties.Title))
		}
	}

	name := g.SpreadsheetID
	if spreadsheet.Properties != nil && spreadsheet.Properties.Title != "" {
		name = spreadsheet.Properties.Title
	}

	wb := workbook.New(name)
	if len(ranges) == 0 {
		return wb, nil
	}

	response, err := g.sheets.Spreadsheets.Values.
		BatchGet(g.SpreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fail(g.Name(), "fetch", fmt.Errorf("unable to retrieve data from sheet (%v)", err))
	}

	for i, title := range titles {
		sheet := wb.AddSheet(title)
		if i >= len(response.ValueRanges) {
			g.log.Warnf("no values returned for %v", title)
			continue
		}

		for r, row := range response.ValueRanges[i].Values {
			for c, v := range row {
				sheet.Set(r+1, c+1, workbook.Cell{Value: value(v)})
			}
		}
	}

	if version, err := g.Version(ctx); err != nil {
		g.log.Warnf("%v", err)
	} else {
		wb.Version = version
	}

	g.log.Infof("Retrieved %v sheets from %q", len(ranges), name)

	return wb, nil
}

// Version returns the ID of the latest revision of the spreadsheet.
func (g *GoogleSheets) Version(ctx context.Context) (string, error) {
	latest, err := latestRevision(ctx, g.drive, g.SpreadsheetID)
	if err != nil {
		return "", fail(g.Name(), "version", err)
	}

	return latest.id, nil
}

func latestRevision(ctx context.Context, gdrive *drive.Service, fileID string) (*revision, error) {
	page := ""
	latest := revision{}

	for {
		call := gdrive.Revisions.List(fileID).Fields("nextPageToken", "revisions(id, modifiedTime)").Context(ctx)
		if page != "" {
			call.PageToken(page)
		}

		revisions, err := call.Do()
		if err != nil {
			return nil, err
		}

		for _, r := range revisions.Revisions {
			datetime, err := time.Parse(time.RFC3339Nano, r.ModifiedTime)
			if err != nil {
				return nil, err
			}

			if latest.modified.Before(datetime) {
				latest.id = r.Id
				latest.modified = datetime
			}
		}

		if page = revisions.NextPageToken; page == "" {
			break
		}
	}

	if latest.modified.IsZero() {
		return nil, fmt.Errorf("unable to identify latest revision for file ID %s", fileID)
	}

	return &latest, nil
}

// value maps an UNFORMATTED_VALUE JSON value to a cell value.
func value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return x
	case float64, bool:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// quote builds an A1 notation range covering the whole of a sheet.
func quote(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
