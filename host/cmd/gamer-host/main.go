package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gamer/core"
	"gamer/host/link"
	"gamer/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", link.DefaultTimeout, "Response timeout")
)

var errUsage = errors.New("bad arguments (type 'help')")

func main() {
	flag.Parse()

	fmt.Println("gamer host - LED matrix console link")
	fmt.Println("====================================")
	fmt.Println()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to console on %s...\n", *device)
	client, err := link.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	client.SetTimeout(*timeout)

	// the Arduino resets when the port opens
	time.Sleep(2 * time.Second)

	if err := client.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	printDictionary(client.Dictionary())

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			fmt.Println("Goodbye!")
			return
		}
		if err := run(client, parts[0], parts[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func run(client *link.Client, cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		printHelp()
		return nil

	case "dict":
		printDictionary(client.Dictionary())
		return nil

	case "raw":
		raw := client.DictionaryRaw()
		fmt.Printf("Raw dictionary data (%d bytes):\n%s\n", len(raw), string(raw))
		return nil

	case "frame":
		f, err := client.GetFrame()
		if err != nil {
			return err
		}
		printFrame(f)
		return nil

	case "load":
		f, err := parseFrame(args)
		if err != nil {
			return err
		}
		return client.LoadFrame(f)

	case "pixel":
		v, err := parseUints(args, 3, 8)
		if err != nil {
			return err
		}
		return client.SetPixel(uint8(v[0]), uint8(v[1]), v[2] != 0)

	case "commit":
		return client.CommitFrame()

	case "clear":
		return client.Clear()

	case "fill":
		return client.Fill()

	case "period":
		v, err := parseUints(args, 1, 16)
		if err != nil {
			return err
		}
		return client.SetRowPeriod(uint16(v[0]))

	case "threshold":
		v, err := parseUints(args, 1, 16)
		if err != nil {
			return err
		}
		return client.SetAnalogThreshold(uint16(v[0]))

	case "debounce":
		v, err := parseUints(args, 1, 8)
		if err != nil {
			return err
		}
		return client.SetDebounce(uint8(v[0]))

	case "input":
		s, err := client.QueryInput()
		if err != nil {
			return err
		}
		for ch := core.Channel(0); ch < core.NumChannels; ch++ {
			fmt.Printf("  %-6s pressed=%-5t held=%t\n", ch, s.WasPressed(ch), s.IsHeld(ch))
		}
		fmt.Printf("  analog=%d\n", s.Analog)
		return nil

	case "beep":
		v, err := parseUints(args, 1, 32)
		if err != nil {
			return err
		}
		return client.Beep(uint32(v[0]))

	case "led":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return errUsage
		}
		return client.SetLED(args[0] == "on")

	case "status":
		s, err := client.Status()
		if err != nil {
			return err
		}
		fmt.Printf("  row_period=%d ticks=%d faults=%d\n", s.RowPeriod, s.Ticks, s.Faults)
		return nil
	}

	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
}

func parseUints(args []string, n, bits int) ([]uint64, error) {
	if len(args) != n {
		return nil, errUsage
	}
	out := make([]uint64, n)
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", a, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseFrame reads eight hex line bytes, line 0 first
func parseFrame(args []string) (core.Frame, error) {
	var f core.Frame
	if len(args) != core.DisplaySize {
		return f, errUsage
	}
	for i, a := range args {
		v, err := strconv.ParseUint(a, 16, 8)
		if err != nil {
			return f, fmt.Errorf("%q: %w", a, err)
		}
		f[i] = byte(v)
	}
	return f, nil
}

func printFrame(f core.Frame) {
	fmt.Println("  " + core.FrameString(f))
	for y := 0; y < core.DisplaySize; y++ {
		var sb strings.Builder
		sb.WriteString("  ")
		for x := 0; x < core.DisplaySize; x++ {
			if f[y]&(1<<uint(x)) != 0 {
				sb.WriteString("#")
			} else {
				sb.WriteString(".")
			}
		}
		fmt.Println(sb.String())
	}
}

func printDictionary(d *link.Dictionary) {
	if d == nil {
		fmt.Println("No dictionary loaded")
		return
	}

	fmt.Println("\n=== Console Dictionary ===")
	fmt.Printf("Version: %s\n", d.Version)
	fmt.Printf("Build: %s\n", d.BuildVersions)

	fmt.Println("\nConfig:")
	for _, k := range sortedKeys(d.Config) {
		fmt.Printf("  %s = %s\n", k, d.Config[k])
	}

	printIDs := func(title string, m map[string]int) {
		fmt.Printf("\n%s (%d):\n", title, len(m))
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })
		for _, name := range names {
			fmt.Printf("  [%d] %s\n", m[name], name)
		}
	}
	printIDs("Commands", d.Commands)
	printIDs("Responses", d.Responses)

	for name, values := range d.Enumerations {
		fmt.Printf("\nEnumeration %s: %d values\n", name, len(values))
	}
	fmt.Println("==========================")
	fmt.Println()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help               - Show this help message")
	fmt.Println("  dict               - Print dictionary summary")
	fmt.Println("  raw                - Print raw dictionary data")
	fmt.Println("  frame              - Show the frame being scanned out")
	fmt.Println("  load b0 .. b7      - Load and show eight hex line bytes")
	fmt.Println("  pixel x y 0|1      - Change one pixel of the working buffer")
	fmt.Println("  commit             - Show the working buffer")
	fmt.Println("  clear / fill       - Turn every pixel off / on")
	fmt.Println("  period n           - Ticks per scan line")
	fmt.Println("  threshold n        - Light sensor rise that counts as an event")
	fmt.Println("  debounce n         - Samples a button level must hold")
	fmt.Println("  input              - Read and clear latched input events")
	fmt.Println("  beep n             - Sound the buzzer for n ticks")
	fmt.Println("  led on|off         - Status LED")
	fmt.Println("  status             - Row period, tick count, fault count")
	fmt.Println("  quit/exit/q        - Exit the program")
	fmt.Println()
}
