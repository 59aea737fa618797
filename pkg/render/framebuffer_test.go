package render

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/phongsphere/pkg/math3d"
)

func TestFrameStoreClear(t *testing.T) {
	// Odd size so copy-doubling ends on a partial copy.
	fs := NewFrameStore(7, 5)
	for i := range fs.Depth {
		if fs.Depth[i] != FarDepth {
			t.Fatalf("new Depth[%d] = %v, want FarDepth", i, fs.Depth[i])
		}
	}

	fs.setColor(fs.Index(3, 2), math3d.V3(1, 0.5, 0.25))
	fs.Depth[fs.Index(3, 2)] = 0.1
	fs.Clear()

	for i, d := range fs.Depth {
		if d != FarDepth {
			t.Fatalf("Depth[%d] = %v after Clear", i, d)
		}
	}
	for i, c := range fs.Color {
		if c != 0 {
			t.Fatalf("Color[%d] = %v after Clear", i, c)
		}
	}
	if fs.Covered() != 0 {
		t.Errorf("Covered() = %d after Clear", fs.Covered())
	}
}

func TestFrameStoreBounds(t *testing.T) {
	fs := NewFrameStore(4, 3)

	tests := []struct {
		x, y int
		want int
	}{
		{0, 0, 0},
		{3, 0, 3},
		{0, 1, 4},
		{3, 2, 11},
		{-1, 0, -1},
		{4, 0, -1},
		{0, 3, -1},
	}
	for _, tc := range tests {
		if got := fs.Index(tc.x, tc.y); got != tc.want {
			t.Errorf("Index(%d, %d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}

	if fs.DepthAt(-1, 0) != FarDepth {
		t.Error("out of bounds DepthAt should return FarDepth")
	}
	if fs.ColorAt(100, 0) != (math3d.Vec3{}) {
		t.Error("out of bounds ColorAt should return black")
	}
}

func TestFrameStoreSnapshot(t *testing.T) {
	fs := NewFrameStore(2, 2)
	fs.setColor(0, math3d.V3(0.1, 0.2, 0.3))

	snap := fs.Snapshot()
	fs.Clear()

	if snap[0] != 0.1 || snap[1] != 0.2 || snap[2] != 0.3 {
		t.Errorf("Snapshot changed after Clear: %v", snap[:3])
	}
}

func TestFrameStoreImageFlip(t *testing.T) {
	fs := NewFrameStore(3, 4)
	// Bottom-left in frame coordinates.
	fs.setColor(fs.Index(0, 0), math3d.V3(1, 0, 0))
	// Top-right in frame coordinates.
	fs.setColor(fs.Index(2, 3), math3d.V3(0, 0, 1))

	img := fs.ToImage()
	if got := img.RGBAAt(0, 3); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("image bottom-left = %v, want red", got)
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("image top-right = %v, want blue", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("image top-left = %v, want black", got)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{2, 255},
	}
	for _, tc := range tests {
		if got := quantize(tc.in); got != tc.want {
			t.Errorf("quantize(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSavePNG(t *testing.T) {
	fs := NewFrameStore(5, 3)
	fs.setColor(fs.Index(1, 1), math3d.V3(0, 1, 0))

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fs.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want 5x3", b)
	}
	if _, g, _, _ := img.At(1, 1).RGBA(); g != 0xffff {
		t.Errorf("green at (1, 1) = %#x, want 0xffff", g)
	}
}

func TestSavePNGBadPath(t *testing.T) {
	fs := NewFrameStore(1, 1)
	if err := fs.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")); err == nil {
		t.Error("SavePNG into a missing directory should fail")
	}
}

func BenchmarkFrameStoreClear(b *testing.B) {
	fs := NewFrameStore(512, 512)
	for b.Loop() {
		fs.Clear()
	}
}
