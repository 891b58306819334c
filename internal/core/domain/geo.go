package domain

import (
	"errors"
	"fmt"
)

// MaxMercatorLat is the latitude cutoff of the Web Mercator projection;
// the slippy-map tile scheme is undefined beyond it.
const MaxMercatorLat = 85.05113

// ErrInvalidBounds reports a degenerate or out-of-range bounding box.
var ErrInvalidBounds = errors.New("invalid bounding box")

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Validate checks that the box is non-degenerate and lies inside the
// Web Mercator domain.
func (b Bounds) Validate() error {
	if b.MinLat >= b.MaxLat {
		return fmt.Errorf("%w: min_lat %.6f >= max_lat %.6f", ErrInvalidBounds, b.MinLat, b.MaxLat)
	}
	if b.MinLon >= b.MaxLon {
		return fmt.Errorf("%w: min_lon %.6f >= max_lon %.6f", ErrInvalidBounds, b.MinLon, b.MaxLon)
	}
	if b.MinLat < -MaxMercatorLat || b.MaxLat > MaxMercatorLat {
		return fmt.Errorf("%w: latitude outside ±%.5f", ErrInvalidBounds, MaxMercatorLat)
	}
	if b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: longitude outside ±180", ErrInvalidBounds)
	}
	return nil
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}
