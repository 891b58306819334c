package domain_test

import (
	"errors"
	"testing"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/domain"
)

func TestBounds_Validate(t *testing.T) {
	valid := domain.Bounds{MinLat: 47.381, MinLon: 8.3795, MaxLat: 48.926, MaxLon: 10.6920}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		b    domain.Bounds
	}{
		{"lat min equals max", domain.Bounds{MinLat: 48, MinLon: 8, MaxLat: 48, MaxLon: 10}},
		{"lat inverted", domain.Bounds{MinLat: 49, MinLon: 8, MaxLat: 48, MaxLon: 10}},
		{"lon min equals max", domain.Bounds{MinLat: 47, MinLon: 10, MaxLat: 48, MaxLon: 10}},
		{"lon inverted", domain.Bounds{MinLat: 47, MinLon: 11, MaxLat: 48, MaxLon: 10}},
		{"lat beyond mercator cutoff", domain.Bounds{MinLat: 47, MinLon: 8, MaxLat: 89, MaxLon: 10}},
		{"lon beyond antimeridian", domain.Bounds{MinLat: 47, MinLon: -181, MaxLat: 48, MaxLon: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.b.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, domain.ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestBounds_Center(t *testing.T) {
	b := domain.Bounds{MinLat: 40, MinLon: -75, MaxLat: 42, MaxLon: -73}
	c := b.Center()
	if c.Lat != 41 || c.Lon != -74 {
		t.Errorf("expected (41, -74), got (%v, %v)", c.Lat, c.Lon)
	}
}
