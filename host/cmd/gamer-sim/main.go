//go:build !tinygo

package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gamer/core"
	"gamer/demo"
	"gamer/sim"
)

// Tick rate of the Arduino board: Timer2 compare at 16 MHz / 8 / 52
const tickHz = 38461

var (
	tps     = flag.Int("tps", 60, "Simulation steps per second")
	period  = flag.Uint("period", core.DefaultRowPeriod, "Row period in ticks")
	scale   = flag.Int("scale", 48, "Window pixels per LED")
	ambient = flag.Uint("ambient", 200, "Light sensor reading when uncovered")
	covered = flag.Uint("covered", 800, "Light sensor reading while L is held")
	debug   = flag.Bool("debug", false, "Print engine diagnostics")
)

var keyMap = []struct {
	key ebiten.Key
	ch  core.Channel
}{
	{ebiten.KeyArrowUp, core.Up},
	{ebiten.KeyArrowLeft, core.Left},
	{ebiten.KeyArrowRight, core.Right},
	{ebiten.KeyArrowDown, core.Down},
	{ebiten.KeyEnter, core.Start},
}

var (
	ledOn  = color.RGBA{R: 0xFF, G: 0x30, B: 0x20, A: 0xFF}
	ledOff = color.RGBA{R: 0x28, G: 0x08, B: 0x08, A: 0xFF}
)

type game struct {
	con   *core.Console
	board *sim.Board
	paint *demo.Paint
	ticks int
	frame core.Frame
	title string
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	for _, m := range keyMap {
		if inpututil.IsKeyJustPressed(m.key) {
			g.board.Press(m.ch)
		}
		if inpututil.IsKeyJustReleased(m.key) {
			g.board.Release(m.ch)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.board.SetLight(core.ADCValue(*covered))
	}
	if inpututil.IsKeyJustReleased(ebiten.KeyL) {
		g.board.SetLight(core.ADCValue(*ambient))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		core.DumpTimingRing()
	}

	for i := 0; i < g.ticks; i++ {
		g.con.Interrupt()
		g.board.Capture()
	}
	g.frame = g.board.Frame()

	if err := g.paint.Step(); err != nil {
		return err
	}

	title := "gamer"
	if g.con.Buzzing() {
		title += " ♪"
	}
	if title != g.title {
		ebiten.SetWindowTitle(title)
		g.title = title
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	for y := 0; y < core.DisplaySize; y++ {
		for x := 0; x < core.DisplaySize; x++ {
			c := ledOff
			if g.frame[y]&(1<<uint(x)) != 0 {
				c = ledOn
			}
			screen.Set(x, y, c)
		}
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return core.DisplaySize, core.DisplaySize
}

func main() {
	flag.Parse()
	if *tps <= 0 || *tps > tickHz {
		fmt.Fprintf(os.Stderr, "Error: -tps must be between 1 and %d\n", tickHz)
		os.Exit(2)
	}

	if *debug {
		core.SetDebugWriter(func(s string) { fmt.Println(s) })
		core.SetDebugEnabled(true)
	}

	cfg := core.DefaultConfig()
	cfg.RowPeriod = uint16(*period)
	board := sim.NewBoard(cfg)
	board.SetLight(core.ADCValue(*ambient))

	con, err := core.New(cfg, board, board)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	core.Install(con)

	g := &game{
		con:   con,
		board: board,
		paint: demo.NewPaint(con),
		ticks: tickHz / *tps,
	}

	ebiten.SetWindowTitle("gamer")
	ebiten.SetWindowSize(core.DisplaySize**scale, core.DisplaySize**scale)
	ebiten.SetTPS(*tps)
	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
