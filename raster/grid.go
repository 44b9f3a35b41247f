package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/workbook"
)

type Options struct {
	CellWidth  int
	CellHeight int
	Padding    int
	Face       font.Face
	Foreground color.Color
	Background color.Color
	Grid       color.Color
	// Fills paints cell background colours from the source document.
	Fills bool
	// MaxPixels bounds the canvas size (width x height).
	MaxPixels int64
}

// DefaultMaxPixels allows a canvas of about 16 megapixels (64MB RGBA), e.g. 68 columns by
// 200 rows of the default 60x20 cells.
const DefaultMaxPixels = 16 << 20

// Grid draws each cell as a fixed size outlined rectangle with its value in the top left
// corner.
type Grid struct {
	Options
	log *log.Logger
}

func DefaultOptions() Options {
	return Options{
		CellWidth:  60,
		CellHeight: 20,
		Padding:    5,
		Face:       basicfont.Face7x13,
		Foreground: color.Black,
		Background: color.White,
		Grid:       color.Black,
		MaxPixels:  DefaultMaxPixels,
	}
}

func NewGrid(options Options, logger *log.Logger) *Grid {
	defaults := DefaultOptions()

	if options.CellWidth <= 0 {
		options.CellWidth = defaults.CellWidth
	}

	if options.CellHeight <= 0 {
		options.CellHeight = defaults.CellHeight
	}

	if options.Padding < 0 {
		options.Padding = defaults.Padding
	}

	if options.Face == nil {
		options.Face = defaults.Face
	}

	if options.Foreground == nil {
		options.Foreground = defaults.Foreground
	}

	if options.Background == nil {
		options.Background = defaults.Background
	}

	if options.Grid == nil {
		options.Grid = defaults.Grid
	}

	if options.MaxPixels <= 0 {
		options.MaxPixels = defaults.MaxPixels
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &Grid{
		Options: options,
		log:     logger,
	}
}

func (g *Grid) Name() string {
	return "grid"
}

func (g *Grid) Render(ctx context.Context, wb *workbook.Workbook, sheet string, rng string, path string) error {
	img, err := g.Rasterize(wb, sheet, rng)
	if errors.Is(err, ErrCanvasTooLarge) {
		return &Error{Path: path, Err: err}
	} else if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return &Error{Path: path, Err: err}
	}

	if err := WritePNG(path, img); err != nil {
		return err
	}

	g.log.Debugf("rendered %v!%v to %v (%vx%v)", sheet, rng, path, img.Bounds().Dx(), img.Bounds().Dy())

	return nil
}

// Rasterize draws sheet!rng of wb. The image is exactly (cols*CellWidth, rows*CellHeight).
// A range whose canvas would exceed MaxPixels is rejected before anything is allocated.
func (g *Grid) Rasterize(wb *workbook.Workbook, sheet string, rng string) (*image.RGBA, error) {
	s, r, err := resolve(wb, sheet, rng)
	if err != nil {
		return nil, err
	}

	W := g.CellWidth
	H := g.CellHeight

	if pixels := int64(r.Cols()*W) * int64(r.Rows()*H); pixels > g.MaxPixels {
		return nil, fmt.Errorf("%w (%vx%v pixels exceeds the %v pixel limit)", ErrCanvasTooLarge, r.Cols()*W, r.Rows()*H, g.MaxPixels)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Cols()*W, r.Rows()*H))
	draw.Draw(img, img.Bounds(), image.NewUniform(g.Background), image.Point{}, draw.Src)

	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			x1 := (col - r.MinCol) * W
			y1 := (row - r.MinRow) * H
			cell := s.Cell(row, col)

			if g.Fills && cell.Fill != "" {
				if c, err := colorful.Hex(cell.Fill); err == nil {
					draw.Draw(img, image.Rect(x1, y1, x1+W, y1+H), image.NewUniform(c), image.Point{}, draw.Src)
				}
			}

			g.outline(img, x1, y1, x1+W, y1+H)
			g.text(img, x1, y1, cell.String())
		}
	}

	return img, nil
}

// outline draws a 1px rectangle with inclusive corners. Edges outside the image are
// clipped.
func (g *Grid) outline(img *image.RGBA, x1, y1, x2, y2 int) {
	for x := x1; x <= x2; x++ {
		img.Set(x, y1, g.Grid)
		img.Set(x, y2, g.Grid)
	}

	for y := y1; y <= y2; y++ {
		img.Set(x1, y, g.Grid)
		img.Set(x2, y, g.Grid)
	}
}

func (g *Grid) text(img *image.RGBA, x1, y1 int, s string) {
	if s == "" {
		return
	}

	line, _, _ := strings.Cut(norm.NFC.String(s), "\n")
	line = strings.TrimRight(line, "\r")

	// one column per fixed-width glyph, plus one for a partly visible glyph
	advance := font.MeasureString(g.Face, "0").Ceil()
	if advance > 0 {
		line = runewidth.Truncate(line, (g.CellWidth-g.Padding)/advance+1, "")
	}

	clip := img.SubImage(image.Rect(x1+1, y1+1, x1+g.CellWidth, y1+g.CellHeight)).(*image.RGBA)

	d := font.Drawer{
		Dst:  clip,
		Src:  image.NewUniform(g.Foreground),
		Face: g.Face,
		Dot:  fixed.P(x1+g.Padding, y1+g.Padding+g.Face.Metrics().Ascent.Ceil()),
	}

	d.DrawString(line)
}
