package ports

import (
	"context"
	"image"
	"time"

	"github.com/paulmach/orb/maptile"
)

// TileSource retrieves and decodes a single map tile.
type TileSource interface {
	Fetch(ctx context.Context, t maptile.Tile) (image.Image, error)
}

// ProgressSink receives progress events from the export pipeline.
// Implementations are observational only; nothing in the pipeline
// depends on their state.
type ProgressSink interface {
	Start(total int)
	Advance(completed int)
	Finish(downloaded, failed int, elapsed time.Duration)
}
