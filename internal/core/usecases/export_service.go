package usecases

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/maptile"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/domain"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/ports"
)

// ExportService runs the map export pipeline: tile grid, download,
// stitch, crop.
type ExportService struct {
	source   ports.TileSource
	progress ports.ProgressSink
	workers  int
}

// NewExportService creates a new ExportService. workers bounds the
// number of concurrent tile downloads.
func NewExportService(source ports.TileSource, progress ports.ProgressSink, workers int) *ExportService {
	if workers <= 0 {
		workers = 4
	}
	if progress == nil {
		progress = nopSink{}
	}
	return &ExportService{source: source, progress: progress, workers: workers}
}

// Report summarises one export run.
type Report struct {
	Tiles      int
	Downloaded int
	Failed     int
	Elapsed    time.Duration
}

type tileResult struct {
	tile maptile.Tile
	img  image.Image
	err  error
}

// Export downloads every tile covering bounds at zoom, pastes them into
// a composite and crops it to the exact bounding box. A failed tile
// leaves its region blank; the run only fails when no tile could be
// fetched at all.
func (s *ExportService) Export(ctx context.Context, b domain.Bounds, zoom int) (image.Image, *Report, error) {
	grid, err := domain.NewTileGrid(b, zoom)
	if err != nil {
		return nil, nil, err
	}

	tiles := grid.Tiles()
	start := time.Now()
	slog.Info("tile grid computed",
		"zoom", zoom, "cols", grid.Cols(), "rows", grid.Rows(), "tiles", len(tiles))

	canvas := image.NewRGBA(grid.CompositeRect())

	jobs := make(chan maptile.Tile)
	results := make(chan tileResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				img, err := s.source.Fetch(ctx, t)
				select {
				case results <- tileResult{tile: t, img: img, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tiles {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single drainer: each paste targets a disjoint region, so no lock
	// is needed around the canvas.
	s.progress.Start(len(tiles))
	downloaded, failed := 0, 0
	for res := range results {
		if res.err != nil {
			failed++
			slog.Warn("tile fetch failed, leaving region blank",
				"z", res.tile.Z, "x", res.tile.X, "y", res.tile.Y, "error", res.err)
		} else {
			off := grid.PixelOffset(res.tile)
			dst := image.Rect(off.X, off.Y, off.X+domain.TileSize, off.Y+domain.TileSize)
			draw.Draw(canvas, dst, res.img, res.img.Bounds().Min, draw.Src)
			downloaded++
		}
		s.progress.Advance(downloaded + failed)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if downloaded == 0 {
		return nil, nil, fmt.Errorf("no tiles fetched: all %d requests failed", len(tiles))
	}

	crop := grid.CropRect(b)
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), canvas, crop.Min, draw.Src)

	report := &Report{
		Tiles:      len(tiles),
		Downloaded: downloaded,
		Failed:     failed,
		Elapsed:    time.Since(start),
	}
	s.progress.Finish(report.Downloaded, report.Failed, report.Elapsed)

	return out, report, nil
}

type nopSink struct{}

func (nopSink) Start(int) {}

func (nopSink) Advance(int) {}

func (nopSink) Finish(int, int, time.Duration) {}
