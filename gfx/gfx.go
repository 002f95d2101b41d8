// Package gfx draws simple shapes onto any drivers.Displayer. Shapes are
// clipped against the displayer's Size; nothing is drawn outside it and no
// error is reported for partially visible shapes.
package gfx

import (
	"image/color"

	"tinygo.org/x/drivers"
)

var (
	// On lights a pixel on the matrix
	On = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	// Off clears a pixel on the matrix
	Off = color.RGBA{A: 0xFF}
)

// Point sets a single pixel if it is on the display
func Point(d drivers.Displayer, x, y int16, c color.RGBA) {
	w, h := d.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	d.SetPixel(x, y, c)
}

// Line draws from (x0, y0) to (x1, y1) inclusive
func Line(d drivers.Displayer, x0, y0, x1, y1 int16, c color.RGBA) {
	dx := abs(int(x1) - int(x0))
	dy := -abs(int(y1) - int(y0))
	sx := int16(-1)
	if x0 < x1 {
		sx = 1
	}
	sy := int16(-1)
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		Point(d, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Rect outlines a w×h rectangle with its top-left corner at (x, y)
func Rect(d drivers.Displayer, x, y, w, h int16, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	Line(d, x, y, x+w-1, y, c)
	Line(d, x, y+h-1, x+w-1, y+h-1, c)
	Line(d, x, y, x, y+h-1, c)
	Line(d, x+w-1, y, x+w-1, y+h-1, c)
}

// FillRect fills a w×h rectangle with its top-left corner at (x, y)
func FillRect(d drivers.Displayer, x, y, w, h int16, c color.RGBA) {
	dw, dh := d.Size()
	x0, y0 := clamp(x, dw), clamp(y, dh)
	x1, y1 := clamp(x+w, dw), clamp(y+h, dh)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			d.SetPixel(px, py, c)
		}
	}
}

// Clear sets every pixel to Off
func Clear(d drivers.Displayer) {
	w, h := d.Size()
	FillRect(d, 0, 0, w, h, Off)
}

func clamp(v, limit int16) int16 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
