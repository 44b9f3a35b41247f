package dashboard

import (
	"errors"

	"github.com/dailyplan/dailyplan/acquire"
	"github.com/dailyplan/dailyplan/raster"
	"github.com/dailyplan/dailyplan/workbook"
)

// Kind classifies a page failure for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, acquire.ErrAcquisition):
		return "AcquisitionFailure"

	case errors.Is(err, workbook.ErrSheetNotFound):
		return "SheetNotFound"

	case errors.Is(err, workbook.ErrInvalidRange):
		return "RangeParseError"

	case errors.Is(err, raster.ErrRender):
		return "RenderFailure"

	default:
		return "Unknown"
	}
}
