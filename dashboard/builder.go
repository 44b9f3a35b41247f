// Package dashboard builds the slide images from the planning workbook and serves them
// as a self-advancing slideshow.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dailyplan/dailyplan/acquire"
	"github.com/dailyplan/dailyplan/log"
	"github.com/dailyplan/dailyplan/raster"
	"github.com/dailyplan/dailyplan/workbook"
)

// Slide is a successfully rendered page.
type Slide struct {
	Page    Page
	Image   string
	Version string
	Updated time.Time
}

// URL returns the image URL, with a query string that changes whenever the image does.
func (s Slide) URL() string {
	return fmt.Sprintf("/images/%s?v=%d", s.Image, s.Updated.UnixNano())
}

type rendered struct {
	version string
	updated time.Time
}

// Builder regenerates page images from the source workbook. Builds are serialised.
//
// A page image is reused while the source reports an unchanged version. When the source
// cannot report a version, images are reused until they are MaxAge old (0 regenerates
// on every build).
type Builder struct {
	Source     acquire.Source
	Rasterizer raster.Rasterizer
	Pages      []Page
	Dir        string
	MaxAge     time.Duration
	Hub        *Hub

	sync.Mutex
	memo *lru.Cache[string, rendered]
	log  *log.Logger
	now  func() time.Time
}

const memoSize = 64

func NewBuilder(source acquire.Source, rasterizer raster.Rasterizer, pages []Page, dir string, logger *log.Logger) (*Builder, error) {
	memo, err := lru.New[string, rendered](memoSize)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, fmt.Errorf("unable to create image directory %v (%v)", dir, err)
	}

	if logger == nil {
		logger = log.Discard()
	}

	return &Builder{
		Source:     source,
		Rasterizer: rasterizer,
		Pages:      pages,
		Dir:        dir,
		memo:       memo,
		log:        logger,
		now:        time.Now,
	}, nil
}

// Build returns the slides for every page that could be rendered, in page order. A page
// that fails is logged and omitted; it never fails the other pages.
func (b *Builder) Build(ctx context.Context, force bool) []Slide {
	b.Lock()
	defer b.Unlock()

	slides := []Slide{}
	fetched := map[string]*workbook.Workbook{}

	for _, page := range b.Pages {
		if err := ctx.Err(); err != nil {
			b.log.Warnf("build cancelled (%v)", err)
			break
		}

		slide, err := b.page(ctx, page, force, fetched)
		if err != nil {
			b.log.Errorf("page %q %v sheet:%q range:%v (%v)", page.Name, Kind(err), page.Sheet, page.Range, err)
			b.memo.Remove(page.Name)
			continue
		}

		slides = append(slides, slide)
	}

	return slides
}

func (b *Builder) page(ctx context.Context, page Page, force bool, fetched map[string]*workbook.Workbook) (Slide, error) {
	path := filepath.Join(b.Dir, page.Image())

	version, err := b.Source.Version(ctx)
	if err != nil {
		b.log.Warnf("%v (regenerating %v)", err, page.Name)
		version = ""
	}

	if !force {
		if r, ok := b.memo.Get(page.Name); ok && b.fresh(r, version) && exists(path) {
			b.log.Debugf("page %q unchanged (version %q)", page.Name, r.version)

			return Slide{Page: page, Image: page.Image(), Version: r.version, Updated: r.updated}, nil
		}
	}

	wb, ok := fetched[version]
	if !ok || version == "" {
		if wb, err = b.Source.Fetch(ctx); err != nil {
			return Slide{}, err
		}

		if version == "" {
			version = wb.Version
		}

		if version != "" {
			fetched[version] = wb
		}
	}

	if err := b.Rasterizer.Render(ctx, wb, page.Sheet, page.Range, path); err != nil {
		return Slide{}, err
	}

	r := rendered{version: version, updated: b.now()}
	b.memo.Add(page.Name, r)

	b.log.Infof("generated image for %q -> %v", page.Sheet, path)

	if b.Hub != nil {
		b.Hub.Publish(Event{Page: page.Name, Image: page.Image(), Version: version})
	}

	return Slide{Page: page, Image: page.Image(), Version: version, Updated: r.updated}, nil
}

func (b *Builder) fresh(r rendered, version string) bool {
	if version != "" {
		return r.version == version
	}

	return b.MaxAge > 0 && b.now().Sub(r.updated) < b.MaxAge
}

// Refresh rebuilds the slides every interval until the context is cancelled.
func (b *Builder) Refresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			slides := b.Build(ctx, false)
			b.log.Debugf("refreshed %v of %v pages", len(slides), len(b.Pages))
		}
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
