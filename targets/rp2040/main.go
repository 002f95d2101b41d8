//go:build rp2040

package main

import (
	"machine"
	"runtime"
	"time"

	"gamer/core"
	"gamer/demo"
	"gamer/protocol"
	"gamer/targets/pio"

	"tinygo.org/x/drivers/buzzer"
)

// Board wiring. The PIO program needs CLK1, CLK2, LAT, OE on consecutive pins.
const (
	pinDAT    = 2
	pinCLK1   = 3
	pinCLK2   = 4
	pinLAT    = 5
	pinOE     = 6
	pinButton = 10 // UP, LEFT, RIGHT, DOWN, START on GP10-GP14
	pinBuzzer = machine.GP15
	pinLED    = 25
	adcLDR    = 0 // GP26
)

// paintInterval paces the built-in paint program while no host is attached
const paintInterval = 40 * time.Millisecond

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	hostAttached bool
	msgerrors    uint32

	consecutiveWriteFailures uint32
)

func boardConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Bus = core.BusPins{
		Data:         pinDAT,
		Latch:        pinLAT,
		OutputEnable: pinOE,
		ColumnClock:  pinCLK1,
		RowClock:     pinCLK2,
	}
	for ch := core.Up; ch <= core.Start; ch++ {
		cfg.Inputs[ch] = core.DigitalChannel(core.GPIOPin(pinButton+int(ch)), true)
	}
	// 12-bit ADC: four times the 10-bit threshold
	cfg.Inputs[core.LDR] = core.AnalogChannel(adcLDR, 4*core.DefaultAnalogThreshold)
	cfg.LED = pinLED
	cfg.Buzzer = core.NoPin // driven through drivers/buzzer below
	return cfg
}

func main() {
	InitUSB()

	gpioDriver := NewRPGPIODriver()
	adcDriver := NewRPADCDriver()

	cfg := boardConfig()
	bus := pio.NewScanBus(0, 0, cfg.Bus)
	con, err := core.NewWithBus(cfg, gpioDriver, adcDriver, bus)
	if err != nil {
		for {
			println("console init failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	pinBuzzer.Configure(machine.PinConfig{Mode: machine.PinOutput})
	bz := buzzer.New(pinBuzzer)
	con.SetBuzzerOutput(&bz)

	core.RegisterConstant("MCU", "rp2040")
	core.RegisterConstant("TICK_FREQ", uint32(1000000/tickPeriodUs))
	core.RegisterConstant("ADC_MAX", uint32(4095))
	core.GetGlobalDictionary().SetBuildVersions("tinygo " + runtime.Version())
	core.InitConsoleCommands(con)
	core.GetGlobalDictionary().BuildDictionary()

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		hostAttached = true
	})
	transport.SetFlushCallback(writeUSB)
	core.SetGlobalTransport(transport)

	paint := demo.NewPaint(con)
	core.Install(con)
	StartTick()

	go usbReaderLoop()

	lastPaint := time.Now()
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			if inputBuffer.Available() > 0 {
				hostAttached = true
				transport.Receive(inputBuffer)
			}
			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}

			if !hostAttached && time.Since(lastPaint) >= paintInterval {
				lastPaint = time.Now()
				paint.Step()
			}
			con.Update()
		}()

		time.Sleep(100 * time.Microsecond)
	}
}

// usbReaderLoop moves USB bytes into the input FIFO
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		for USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				break
			}
			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				break
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB drains the output buffer. After repeated failures the host is
// assumed gone and pending output is dropped.
func writeUSB() {
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				transport.Reset()
				hostAttached = false
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
