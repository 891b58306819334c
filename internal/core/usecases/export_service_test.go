package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/paulmach/orb/maptile"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/domain"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/usecases"
)

var manhattan = domain.Bounds{MinLat: 40.70, MinLon: -74.02, MaxLat: 40.75, MaxLon: -73.97}

// --- Mock TileSource ---

type mockTileSource struct {
	fetchFn func(ctx context.Context, t maptile.Tile) (image.Image, error)
	calls   atomic.Int64
}

func (m *mockTileSource) Fetch(ctx context.Context, t maptile.Tile) (image.Image, error) {
	m.calls.Add(1)
	if m.fetchFn != nil {
		return m.fetchFn(ctx, t)
	}
	return solidTile(color.RGBA{R: 1, A: 255}), nil
}

// solidTile returns a 256x256 tile filled with one colour.
func solidTile(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, domain.TileSize, domain.TileSize))
	for y := 0; y < domain.TileSize; y++ {
		for x := 0; x < domain.TileSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// tileColor gives every tile coordinate a distinct, deterministic colour.
func tileColor(t maptile.Tile) color.RGBA {
	return color.RGBA{R: uint8(t.X % 251), G: uint8(t.Y % 251), B: uint8(t.Z), A: 255}
}

func coloredSource() *mockTileSource {
	return &mockTileSource{
		fetchFn: func(ctx context.Context, t maptile.Tile) (image.Image, error) {
			return solidTile(tileColor(t)), nil
		},
	}
}

// --- Tests ---

func TestExportService_Export(t *testing.T) {
	src := coloredSource()
	svc := usecases.NewExportService(src, nil, 4)

	img, report, err := svc.Export(context.Background(), manhattan, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grid, _ := domain.NewTileGrid(manhattan, 12)
	if report.Tiles != grid.Count() {
		t.Errorf("expected %d tiles in report, got %d", grid.Count(), report.Tiles)
	}
	if report.Downloaded != grid.Count() || report.Failed != 0 {
		t.Errorf("expected all %d tiles downloaded, got %d downloaded / %d failed",
			grid.Count(), report.Downloaded, report.Failed)
	}
	if int64(grid.Count()) != src.calls.Load() {
		t.Errorf("expected %d fetches, got %d", grid.Count(), src.calls.Load())
	}

	// Cropped output is strictly smaller than the composite.
	if img.Bounds().Dx() >= grid.CompositeRect().Dx() {
		t.Errorf("cropped width %d not smaller than composite %d",
			img.Bounds().Dx(), grid.CompositeRect().Dx())
	}
	if img.Bounds().Min != (image.Point{}) {
		t.Errorf("expected zero-origin output, got %v", img.Bounds().Min)
	}
}

// Each tile must land at its own offset: a pixel inside the crop must carry
// the colour of the tile that geographically contains it.
func TestExportService_PastePositions(t *testing.T) {
	svc := usecases.NewExportService(coloredSource(), nil, 2)

	img, _, err := svc.Export(context.Background(), manhattan, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	grid, _ := domain.NewTileGrid(manhattan, 12)
	crop := grid.CropRect(manhattan)

	for _, p := range []image.Point{
		{0, 0},
		{img.Bounds().Dx() - 1, 0},
		{0, img.Bounds().Dy() - 1},
		{img.Bounds().Dx() - 1, img.Bounds().Dy() - 1},
		{img.Bounds().Dx() / 2, img.Bounds().Dy() / 2},
	} {
		canvasX := crop.Min.X + p.X
		canvasY := crop.Min.Y + p.Y
		want := tileColor(maptile.New(
			grid.MinX+uint32(canvasX/domain.TileSize),
			grid.MinY+uint32(canvasY/domain.TileSize),
			grid.Zoom,
		))
		got := img.At(p.X, p.Y)
		r, g, b, _ := got.RGBA()
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Errorf("pixel %v: got %v, want %v", p, got, want)
		}
	}
}

func TestExportService_FailedTileLeavesBlankRegion(t *testing.T) {
	grid, _ := domain.NewTileGrid(manhattan, 12)
	bad := maptile.New(grid.MinX, grid.MinY, grid.Zoom)

	src := &mockTileSource{
		fetchFn: func(ctx context.Context, t maptile.Tile) (image.Image, error) {
			if t == bad {
				return nil, errors.New("HTTP 404")
			}
			return solidTile(color.RGBA{R: 200, G: 200, B: 200, A: 255}), nil
		},
	}
	svc := usecases.NewExportService(src, nil, 3)

	img, report, err := svc.Export(context.Background(), manhattan, 12)
	if err != nil {
		t.Fatalf("a single failed tile must not fail the run: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("expected 1 failed tile, got %d", report.Failed)
	}
	if report.Downloaded != grid.Count()-1 {
		t.Errorf("expected %d downloaded, got %d", grid.Count()-1, report.Downloaded)
	}

	// The bad tile covers the composite origin; the crop's top-left pixel
	// sits inside it and must be the zero value.
	crop := grid.CropRect(manhattan)
	if crop.Min.X < domain.TileSize && crop.Min.Y < domain.TileSize {
		r, g, b, a := img.At(0, 0).RGBA()
		if r != 0 || g != 0 || b != 0 || a != 0 {
			t.Errorf("expected blank pixel in failed tile region, got rgba(%d,%d,%d,%d)", r, g, b, a)
		}
	}
}

func TestExportService_AllTilesFailed(t *testing.T) {
	src := &mockTileSource{
		fetchFn: func(ctx context.Context, t maptile.Tile) (image.Image, error) {
			return nil, errors.New("HTTP 503")
		},
	}
	svc := usecases.NewExportService(src, nil, 2)

	_, _, err := svc.Export(context.Background(), manhattan, 12)
	if err == nil {
		t.Fatal("expected error when no tile could be fetched")
	}
}

func TestExportService_UnsupportedZoomBeforeFetch(t *testing.T) {
	src := &mockTileSource{}
	svc := usecases.NewExportService(src, nil, 2)

	_, _, err := svc.Export(context.Background(), manhattan, 25)
	if !errors.Is(err, domain.ErrUnsupportedZoom) {
		t.Fatalf("expected ErrUnsupportedZoom, got %v", err)
	}
	if src.calls.Load() != 0 {
		t.Errorf("expected no fetches for invalid zoom, got %d", src.calls.Load())
	}
}

func TestExportService_Idempotent(t *testing.T) {
	svc := usecases.NewExportService(coloredSource(), nil, 4)

	encode := func() []byte {
		img, _, err := svc.Export(context.Background(), manhattan, 12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encode: %v", err)
		}
		return buf.Bytes()
	}

	first := encode()
	second := encode()
	if !bytes.Equal(first, second) {
		t.Error("two runs with a deterministic tile source must produce byte-identical images")
	}
}

func TestExportService_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &mockTileSource{
		fetchFn: func(ctx context.Context, t maptile.Tile) (image.Image, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := usecases.NewExportService(src, nil, 2)

	_, _, err := svc.Export(ctx, manhattan, 12)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
