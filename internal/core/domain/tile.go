package domain

import (
	"errors"
	"fmt"
	"image"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSize is the pixel width and height of a standard raster tile.
const TileSize = 256

// Zoom levels supported by the public OSM raster endpoint.
const (
	ZoomMin = 0
	ZoomMax = 19
)

// ErrUnsupportedZoom reports a zoom level outside [ZoomMin, ZoomMax].
var ErrUnsupportedZoom = errors.New("unsupported zoom level")

// TileGrid is the axis-aligned range of slippy-map tiles covering a
// bounding box at one zoom level. Pixel coordinates returned by its
// methods are relative to the grid's north-west corner, with y growing
// southward as in the composite raster.
type TileGrid struct {
	Zoom maptile.Zoom
	MinX uint32
	MinY uint32
	MaxX uint32
	MaxY uint32
}

// NewTileGrid computes the covering tile range for bounds at zoom.
// It fails on a degenerate box or an out-of-range zoom, before any
// tile is requested.
func NewTileGrid(b Bounds, zoom int) (*TileGrid, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if zoom < ZoomMin || zoom > ZoomMax {
		return nil, fmt.Errorf("%w: %d (supported %d-%d)", ErrUnsupportedZoom, zoom, ZoomMin, ZoomMax)
	}

	z := maptile.Zoom(zoom)
	limit := uint32(1)<<uint(zoom) - 1

	// North-west corner gives the minimum x and y, south-east the maximum.
	nw := maptile.At(orb.Point{b.MinLon, b.MaxLat}, z)
	se := maptile.At(orb.Point{b.MaxLon, b.MinLat}, z)

	return &TileGrid{
		Zoom: z,
		MinX: clampTile(nw.X, limit),
		MinY: clampTile(nw.Y, limit),
		MaxX: clampTile(se.X, limit),
		MaxY: clampTile(se.Y, limit),
	}, nil
}

// clampTile keeps an index inside [0, 2^z) when a box corner sits exactly
// on the antimeridian or the mercator latitude cutoff.
func clampTile(v, limit uint32) uint32 {
	if v > limit {
		return limit
	}
	return v
}

// Cols returns the number of tile columns in the grid.
func (g *TileGrid) Cols() int { return int(g.MaxX-g.MinX) + 1 }

// Rows returns the number of tile rows in the grid.
func (g *TileGrid) Rows() int { return int(g.MaxY-g.MinY) + 1 }

// Count returns the total number of tiles in the grid.
func (g *TileGrid) Count() int { return g.Cols() * g.Rows() }

// Tiles returns the grid's tiles in row-major order.
func (g *TileGrid) Tiles() []maptile.Tile {
	tiles := make([]maptile.Tile, 0, g.Count())
	for y := g.MinY; y <= g.MaxY; y++ {
		for x := g.MinX; x <= g.MaxX; x++ {
			tiles = append(tiles, maptile.New(x, y, g.Zoom))
		}
	}
	return tiles
}

// CompositeRect returns the pixel rectangle of the stitched canvas.
func (g *TileGrid) CompositeRect() image.Rectangle {
	return image.Rect(0, 0, g.Cols()*TileSize, g.Rows()*TileSize)
}

// PixelOffset returns the canvas position of a tile's north-west pixel.
func (g *TileGrid) PixelOffset(t maptile.Tile) image.Point {
	return image.Pt(int(t.X-g.MinX)*TileSize, int(t.Y-g.MinY)*TileSize)
}

// PixelForCoord projects a geographic coordinate into the canvas using
// the same Web Mercator formula that placed the tiles.
func (g *TileGrid) PixelForCoord(lat, lon float64) image.Point {
	f := maptile.Fraction(orb.Point{lon, lat}, g.Zoom)
	return image.Pt(
		int((f.X()-float64(g.MinX))*TileSize),
		int((f.Y()-float64(g.MinY))*TileSize),
	)
}

// CropRect returns the pixel rectangle of bounds within the canvas,
// clamped to the canvas so projection rounding can never produce an
// out-of-range crop.
func (g *TileGrid) CropRect(b Bounds) image.Rectangle {
	nw := g.PixelForCoord(b.MaxLat, b.MinLon)
	se := g.PixelForCoord(b.MinLat, b.MaxLon)
	return image.Rect(nw.X, nw.Y, se.X, se.Y).Intersect(g.CompositeRect())
}
