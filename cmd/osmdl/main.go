package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/adapters/osm"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/adapters/raster"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/domain"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/core/usecases"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/pkg/config"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/pkg/geospatial"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/pkg/logging"
	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/pkg/progress"
)

const usage = "usage: osmdl [min-lat min-lon max-lat max-lon [zoom]]"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := applyArgs(cfg, os.Args[1:]); err != nil {
		log.Fatalf("%v\n%s", err, usage)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	bounds := domain.Bounds{
		MinLat: cfg.Region.MinLat,
		MinLon: cfg.Region.MinLon,
		MaxLat: cfg.Region.MaxLat,
		MaxLon: cfg.Region.MaxLon,
	}

	widthM, heightM := geospatial.Span(bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)
	slog.Info("starting map export",
		"bounds", fmt.Sprintf("%.4f,%.4f..%.4f,%.4f", bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon),
		"zoom", cfg.Region.Zoom,
		"extent_km", fmt.Sprintf("%.0fx%.0f", widthM/1000, heightM/1000),
		"output", cfg.Output.Path)
	slog.Info("tile usage policy",
		"note", "bulk downloads from the public OSM servers should stay modest",
		"policy", "https://operations.osmfoundation.org/policies/tiles/")

	source := osm.New(osm.Config{
		URLTemplate: cfg.Tiles.URLTemplate,
		UserAgent:   cfg.Tiles.UserAgent,
		Timeout:     time.Duration(cfg.Tiles.TimeoutSeconds) * time.Second,
		Retries:     cfg.Tiles.Retries,
		RatePerSec:  cfg.Tiles.RateLimit,
	})

	svc := usecases.NewExportService(source, progress.NewConsole(os.Stderr), cfg.Tiles.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	img, report, err := svc.Export(ctx, bounds, cfg.Region.Zoom)
	if err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}

	if err := raster.WriteImage(cfg.Output.Path, img, cfg.Output.JPEGQuality); err != nil {
		slog.Error("write output", "error", err)
		os.Exit(1)
	}

	slog.Info("saved map export",
		"path", cfg.Output.Path,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"tiles", report.Tiles,
		"downloaded", report.Downloaded,
		"failed", report.Failed,
		"elapsed", report.Elapsed.Round(time.Millisecond))
}

// applyArgs overrides the configured region with positional arguments:
// four coordinates and an optional zoom.
func applyArgs(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) != 4 && len(args) != 5 {
		return fmt.Errorf("expected 4 coordinates and an optional zoom, got %d arguments", len(args))
	}

	coords := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("argument %d: %q is not a number", i+1, args[i])
		}
		coords[i] = v
	}
	cfg.Region.MinLat, cfg.Region.MinLon = coords[0], coords[1]
	cfg.Region.MaxLat, cfg.Region.MaxLon = coords[2], coords[3]

	if len(args) == 5 {
		zoom, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("zoom: %q is not an integer", args[4])
		}
		cfg.Region.Zoom = zoom
	}
	return nil
}
