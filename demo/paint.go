// Package demo is a small paint program for the console. The arrow buttons
// move a blinking cursor, START toggles the pixel under it, and covering the
// light sensor wipes the canvas with a beep.
package demo

import (
	"gamer/core"
	"gamer/gfx"

	"tinygo.org/x/drivers"
)

const (
	// BlinkSteps is how many Step calls the cursor stays in one phase
	BlinkSteps = 8
	// ClearBeepTicks is the length of the wipe beep in interrupt ticks
	ClearBeepTicks = 4000
)

// Console is the part of *core.Console the paint program drives
type Console interface {
	WasPressed(ch core.Channel) bool
	Beep(ticks uint32)
	Update() error
	Displayer() drivers.Displayer
}

// Paint holds the canvas and cursor. It is foreground code; call Step from
// the main loop.
type Paint struct {
	con    Console
	screen drivers.Displayer
	canvas core.PixelBuffer
	x, y   int
	steps  uint32
}

// NewPaint starts with an empty canvas and the cursor top left
func NewPaint(con Console) *Paint {
	return &Paint{con: con, screen: con.Displayer()}
}

// Cursor returns the cursor position
func (p *Paint) Cursor() (x, y int) {
	return p.x, p.y
}

// Canvas returns the painted pixels without the cursor
func (p *Paint) Canvas() core.PixelBuffer {
	return p.canvas
}

// Step handles the events latched since the last call, redraws and
// services the buzzer.
func (p *Paint) Step() error {
	if p.con.WasPressed(core.Left) {
		p.move(-1, 0)
	}
	if p.con.WasPressed(core.Right) {
		p.move(1, 0)
	}
	if p.con.WasPressed(core.Up) {
		p.move(0, -1)
	}
	if p.con.WasPressed(core.Down) {
		p.move(0, 1)
	}
	if p.con.WasPressed(core.Start) {
		p.canvas.Set(p.x, p.y, !p.canvas.Get(p.x, p.y))
	}
	if p.con.WasPressed(core.LDR) {
		p.canvas.Fill(false)
		p.con.Beep(ClearBeepTicks)
	}

	p.draw()
	p.steps++
	if err := p.screen.Display(); err != nil {
		return err
	}
	return p.con.Update()
}

func (p *Paint) move(dx, dy int) {
	x, y := p.x+dx, p.y+dy
	if x < 0 || x >= core.DisplaySize || y < 0 || y >= core.DisplaySize {
		return
	}
	p.x, p.y = x, y
}

// CursorVisible reports whether the next draw inverts the cursor pixel
func (p *Paint) CursorVisible() bool {
	return (p.steps/BlinkSteps)%2 == 0
}

func (p *Paint) draw() {
	gfx.Clear(p.screen)
	for x := 0; x < core.DisplaySize; x++ {
		for y := 0; y < core.DisplaySize; y++ {
			if p.canvas[x][y] {
				gfx.Point(p.screen, int16(x), int16(y), gfx.On)
			}
		}
	}
	if p.CursorVisible() {
		c := gfx.On
		if p.canvas[p.x][p.y] {
			c = gfx.Off
		}
		gfx.Point(p.screen, int16(p.x), int16(p.y), c)
	}
}
