//go:build avr

package main

import (
	"machine"
	"runtime"
	"time"

	"gamer/core"
	"gamer/demo"
	"gamer/protocol"

	"tinygo.org/x/drivers/buzzer"
)

const (
	linkBaud      = 115200
	paintInterval = 40 * time.Millisecond
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport
	hostAttached bool
)

func main() {
	uart := machine.Serial
	uart.Configure(machine.UARTConfig{BaudRate: linkBaud})

	gpio := UnoGPIODriver{}
	adc := NewUnoADCDriver()

	// Uno board wiring; D3 carries the Timer2 PWM output
	cfg := core.DefaultConfig()
	buzzerPin := unoPins[cfg.Buzzer]
	cfg.Buzzer = core.NoPin
	con, err := core.New(cfg, gpio, adc)
	if err != nil {
		for {
			println("console init failed:", err.Error())
			time.Sleep(time.Second)
		}
	}
	machine.D3.Configure(machine.PinConfig{Mode: machine.PinOutput})

	buzzerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	bz := buzzer.New(buzzerPin)
	con.SetBuzzerOutput(&bz)

	core.RegisterConstant("MCU", "atmega328p")
	core.RegisterConstant("TICK_FREQ", uint32(TickFreq))
	core.RegisterConstant("ADC_MAX", uint32(1023))
	core.GetGlobalDictionary().SetBuildVersions("tinygo " + runtime.Version())
	core.InitConsoleCommands(con)
	core.GetGlobalDictionary().BuildDictionary()

	inputBuffer = protocol.NewFifoBuffer(128)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		hostAttached = true
	})
	transport.SetFlushCallback(func() {
		uart.Write(outputBuffer.Result())
		outputBuffer.Reset()
	})
	core.SetGlobalTransport(transport)

	paint := demo.NewPaint(con)
	core.Install(con)
	StartTick()

	lastPaint := time.Now()
	for {
		for uart.Buffered() > 0 {
			b, err := uart.ReadByte()
			if err != nil || inputBuffer.Write([]byte{b}) == 0 {
				break
			}
		}
		if inputBuffer.Available() > 0 {
			hostAttached = true
			transport.Receive(inputBuffer)
		}

		if !hostAttached && time.Since(lastPaint) >= paintInterval {
			lastPaint = time.Now()
			paint.Step()
		}
		con.Update()
	}
}
