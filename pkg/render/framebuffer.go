// Package render implements the phongsphere software pipeline: transforms,
// triangle rasterization with a depth buffer, Blinn-Phong shading and the
// frame store the display surfaces read from.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

// FarDepth is the cleared depth value; every projected depth is smaller.
const FarDepth = math.MaxFloat64

// FrameStore owns the color and depth buffers of one frame.
//
// Both buffers are row-major with row 0 at the bottom, matching the viewport
// mapping. Color holds three float channels per pixel in [0, 1].
type FrameStore struct {
	Width  int
	Height int
	Color  []float64 // Width*Height*3
	Depth  []float64 // Width*Height
}

// NewFrameStore allocates a cleared frame store.
func NewFrameStore(width, height int) *FrameStore {
	fs := &FrameStore{
		Width:  width,
		Height: height,
		Color:  make([]float64, width*height*3),
		Depth:  make([]float64, width*height),
	}
	fs.Clear()
	return fs
}

// Clear resets color to black and depth to FarDepth.
func (fs *FrameStore) Clear() {
	clear(fs.Color)

	// Use copy-doubling for faster clearing
	n := len(fs.Depth)
	if n == 0 {
		return
	}
	fs.Depth[0] = FarDepth
	for i := 1; i < n; i *= 2 {
		copy(fs.Depth[i:], fs.Depth[:i])
	}
}

// Index returns the pixel index of (x, y), or -1 when out of bounds.
func (fs *FrameStore) Index(x, y int) int {
	if x < 0 || x >= fs.Width || y < 0 || y >= fs.Height {
		return -1
	}
	return y*fs.Width + x
}

// DepthAt returns the stored depth at (x, y), FarDepth when out of bounds.
func (fs *FrameStore) DepthAt(x, y int) float64 {
	idx := fs.Index(x, y)
	if idx < 0 {
		return FarDepth
	}
	return fs.Depth[idx]
}

// ColorAt returns the stored color at (x, y), black when out of bounds.
func (fs *FrameStore) ColorAt(x, y int) math3d.Vec3 {
	idx := fs.Index(x, y)
	if idx < 0 {
		return math3d.Vec3{}
	}
	return math3d.V3(fs.Color[3*idx], fs.Color[3*idx+1], fs.Color[3*idx+2])
}

func (fs *FrameStore) setColor(idx int, c math3d.Vec3) {
	fs.Color[3*idx+0] = c.X
	fs.Color[3*idx+1] = c.Y
	fs.Color[3*idx+2] = c.Z
}

// Snapshot returns a copy of the color buffer. Only call it after a render
// pass has completed.
func (fs *FrameStore) Snapshot() []float64 {
	out := make([]float64, len(fs.Color))
	copy(out, fs.Color)
	return out
}

// Covered returns the number of pixels whose depth was written this frame.
func (fs *FrameStore) Covered() int {
	n := 0
	for _, d := range fs.Depth {
		if d < FarDepth {
			n++
		}
	}
	return n
}

// RGBA returns the 8-bit color at (x, y) in image coordinates, where row 0 is
// the top of the picture.
func (fs *FrameStore) RGBA(x, y int) color.RGBA {
	c := fs.ColorAt(x, fs.Height-1-y)
	return color.RGBA{quantize(c.X), quantize(c.Y), quantize(c.Z), 255}
}

func quantize(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// ToImage converts the color buffer to a top-to-bottom image.RGBA.
func (fs *FrameStore) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fs.Width, fs.Height))
	for y := 0; y < fs.Height; y++ {
		for x := 0; x < fs.Width; x++ {
			img.SetRGBA(x, y, fs.RGBA(x, y))
		}
	}
	return img
}

// EncodePNG writes the frame as PNG.
func (fs *FrameStore) EncodePNG(w io.Writer) error {
	return png.Encode(w, fs.ToImage())
}

// SavePNG saves the frame as a PNG file.
func (fs *FrameStore) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fs.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
