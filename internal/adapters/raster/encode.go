// Package raster decodes downloaded tile bytes and writes the final
// stitched image to disk.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Tile servers commonly answer with PNG, JPEG or WebP regardless of
	// the extension in the URL template.
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is used when the configured quality is out of range.
const DefaultJPEGQuality = 90

// DecodeTile decodes raw tile bytes into an image.
func DecodeTile(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}
	return img, nil
}

// WriteImage encodes img according to the output path's extension
// (.png, .jpg or .jpeg) and writes it to disk.
func WriteImage(path string, img image.Image, jpegQuality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	var encodeErr error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encodeErr = png.Encode(f, img)
	case ".jpg", ".jpeg":
		if jpegQuality < 1 || jpegQuality > 100 {
			jpegQuality = DefaultJPEGQuality
		}
		encodeErr = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	default:
		encodeErr = fmt.Errorf("unsupported output format %q (use .png, .jpg or .jpeg)", filepath.Ext(path))
	}

	if encodeErr != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, encodeErr)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
