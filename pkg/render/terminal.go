package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw renders the frame onto the terminal area with nearest-neighbour
// sampling, keeping the aspect ratio and centering the picture.
// Each cell shows two frame rows using ▀ with fg=top color and bg=bottom color.
func (fs *FrameStore) Draw(scr uv.Screen, area uv.Rectangle) {
	cols, rows := area.Dx(), area.Dy()
	if cols <= 0 || rows <= 0 || fs.Width == 0 || fs.Height == 0 {
		return
	}

	// Frame pixels per terminal sample; one sample per column, two per row.
	scale := max(float64(fs.Width)/float64(cols), float64(fs.Height)/float64(rows*2))
	drawW := min(cols, int(float64(fs.Width)/scale))
	drawH := min(rows*2, int(float64(fs.Height)/scale))
	offX := area.Min.X + (cols-drawW)/2
	offY := area.Min.Y + (rows-(drawH+1)/2)/2

	sample := func(sx, sy int) color.Color {
		if sy >= drawH {
			return nil
		}
		x := min(int((float64(sx)+0.5)*scale), fs.Width-1)
		y := min(int((float64(sy)+0.5)*scale), fs.Height-1)
		return fs.RGBA(x, y)
	}

	for row := 0; row*2 < drawH; row++ {
		for col := 0; col < drawW; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: sample(col, row*2),
					Bg: sample(col, row*2+1),
				},
			}
			scr.SetCell(offX+col, offY+row, cell)
		}
	}
}
