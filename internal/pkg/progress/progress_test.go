package progress_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/werner-roman/OSM-and-Stadiamaps-Downloader/internal/pkg/progress"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := progress.NewConsole(&buf)

	c.Start(4)
	c.Advance(1)
	c.Advance(2)
	c.Finish(3, 1, 1500*time.Millisecond)

	out := buf.String()
	if !strings.Contains(out, "downloading 4 tiles") {
		t.Errorf("missing start line in %q", out)
	}
	if !strings.Contains(out, "tile 2/4 (50.0%)") {
		t.Errorf("missing progress line in %q", out)
	}
	if !strings.Contains(out, "tiles/sec") {
		t.Errorf("missing rate in %q", out)
	}
	if !strings.Contains(out, "downloaded 3 tiles, 1 failed in 1.5s") {
		t.Errorf("missing summary in %q", out)
	}
}

func TestConsole_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	c := progress.NewConsole(&buf)

	c.Start(0)
	c.Advance(0) // must not divide by zero
	c.Finish(0, 0, 0)
}
