//go:build linux && !tinygo

// Command rpi drives the console matrix from a Raspberry Pi header, with
// the light sensor on an ADS1115 and the tick source a goroutine ticker.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"gamer/core"
	"gamer/demo"
)

// BCM numbering
const (
	pinDAT    = 17
	pinCLK1   = 27
	pinCLK2   = 22
	pinLAT    = 23
	pinOE     = 24
	pinLED    = 12
	pinBuzzer = 18
)

var buttonPins = [core.LDR]core.GPIOPin{5, 6, 13, 19, 26}

func boardConfig(period uint) core.Config {
	cfg := core.DefaultConfig()
	cfg.Bus = core.BusPins{
		Data:         pinDAT,
		Latch:        pinLAT,
		OutputEnable: pinOE,
		ColumnClock:  pinCLK1,
		RowClock:     pinCLK2,
	}
	for ch := core.Up; ch <= core.Start; ch++ {
		cfg.Inputs[ch] = core.DigitalChannel(buttonPins[ch], true)
	}
	cfg.Inputs[core.LDR] = core.AnalogChannel(0, core.DefaultAnalogThreshold)
	cfg.LED = pinLED
	cfg.Buzzer = pinBuzzer
	cfg.RowPeriod = uint16(period)
	return cfg
}

func main() {
	var (
		tickHz = flag.Uint("tick", 4000, "tick rate in Hz")
		period = flag.Uint("period", 5, "ticks per scan line")
		i2cBus = flag.String("i2c", "", "I2C bus for the ADS1115 (empty for the first one)")
		debug  = flag.Bool("debug", false, "log scan events")
		fps    = flag.Uint("fps", 25, "paint program steps per second")
	)
	flag.Parse()

	if *tickHz == 0 || *fps == 0 {
		log.Fatal("tick and fps must be positive")
	}
	if *period == 0 || *period > 0xFFFF {
		log.Fatalf("period %d out of range", *period)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("periph init: %v", err)
	}

	bus, err := i2creg.Open(*i2cBus)
	if err != nil {
		log.Fatalf("open I2C: %v", err)
	}
	defer bus.Close()

	adcDriver, err := NewLightADC(bus)
	if err != nil {
		log.Fatalf("ADS1115: %v", err)
	}
	defer adcDriver.Halt()

	gpioDriver := NewPeriphGPIO()
	core.SetDebugWriter(func(s string) { log.Println(s) })
	core.SetDebugEnabled(*debug)

	con, err := core.New(boardConfig(*period), gpioDriver, adcDriver)
	if err != nil {
		log.Fatalf("console init: %v", err)
	}
	core.Install(con)

	stop := make(chan struct{})
	done := make(chan struct{})
	go tickLoop(con, time.Second/time.Duration(*tickHz), stop, done)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	paint := demo.NewPaint(con)
	steps := time.NewTicker(time.Second / time.Duration(*fps))
	defer steps.Stop()

	log.Printf("scanning at %d Hz, %d ticks per line", *tickHz, *period)
	for {
		select {
		case <-sig:
			close(stop)
			<-done
			if *debug {
				core.DumpTimingRing()
			}
			con.ClearAll()
			con.CommitFrame()
			con.Interrupt()
			log.Printf("stopped after %d ticks, %d bus faults", con.Ticks(), con.Faults())
			return
		case <-steps.C:
			if err := paint.Step(); err != nil {
				log.Printf("paint: %v", err)
			}
		}
	}
}

// tickLoop stands in for the timer interrupt
func tickLoop(con *core.Console, every time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			con.Interrupt()
		}
	}
}
