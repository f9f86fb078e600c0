// Package overlay renders the diagnostics overlay and the simulator's
// synthetic test pattern. JPEG is used as the opaque frame payload on
// both ends; the queue itself never looks inside the bytes.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fouable/Security-Camera-Toolkit-For-Unity/internal/framequeue"
)

const jpegQuality = 80

// TestPattern draws a synthetic frame: a slow horizontal gradient with
// a vertical bar sweeping one pixel per frame, so dropped frames are
// visible as jumps when eyeballing the stream.
func TestPattern(width, height int, frameNum uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := uint8(frameNum % 256)
	for x := 0; x < width; x++ {
		shade := uint8((x*255)/width) ^ base
		col := color.RGBA{shade, shade / 2, 255 - shade, 255}
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, col)
		}
	}
	bar := int(frameNum) % width
	draw.Draw(img, image.Rect(bar, 0, bar+4, height), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)
	return img
}

// EncodeFrame compresses an image into the payload format the
// simulator pushes through the queue.
func EncodeFrame(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Annotate decodes a frame payload, draws the queue statistics onto
// it, and re-encodes it. Used for the /snapshot.jpg diagnostics
// endpoint; the hot path never pays for this.
func Annotate(payload []byte, stats framequeue.Stats) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	lines := []string{
		fmt.Sprintf("queued %.1f/s  dequeued %.1f/s  dropped %.1f/s",
			stats.QueuedPerSecond, stats.DequeuedPerSecond, stats.DroppedPerSecond),
		fmt.Sprintf("len %d  pool %d  drops %d  late %d",
			stats.QueueLen, stats.PoolSize, stats.TotalDropped, stats.TotalLate),
	}
	drawStatsBlock(img, 8, 8, lines)

	return EncodeFrame(img)
}

// drawStatsBlock paints white text over a black backing rectangle so
// the overlay stays readable on any frame content.
func drawStatsBlock(img *image.RGBA, x, y int, lines []string) {
	face := basicfont.Face7x13
	lineHeight := face.Height + 3

	widest := 0
	for _, line := range lines {
		if w := len(line) * face.Advance; w > widest {
			widest = w
		}
	}
	backing := image.Rect(x-4, y-4, x+widest+4, y+lineHeight*len(lines)+4)
	draw.Draw(img, backing.Intersect(img.Bounds()), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	for i, line := range lines {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
			Face: face,
			Dot:  fixed.P(x, y+face.Ascent+i*lineHeight),
		}
		d.DrawString(line)
	}
}
