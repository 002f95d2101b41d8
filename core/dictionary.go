package core

import (
	"sort"
	"sync"
)

// Constant is a named value published in the data dictionary
type Constant struct {
	Name  string
	Value interface{}
}

// Enumeration maps symbolic names to their wire values
type Enumeration struct {
	Name   string
	Values []string // index is the wire value; empty names are skipped
}

// Dictionary is the JSON document a host fetches with identify to learn
// the message table and the console's constants.
type Dictionary struct {
	mu           sync.RWMutex
	constants    map[string]*Constant
	enumerations map[string]*Enumeration
	commandReg   *CommandRegistry
	version      string
	build        string
	cached       []byte
}

var globalDictionary = NewDictionary(globalRegistry)

func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		constants:    make(map[string]*Constant),
		enumerations: make(map[string]*Enumeration),
		commandReg:   cmdReg,
		version:      "gamer-0.1.0",
		build:        "go",
	}
}

// RegisterConstant adds a constant to the global dictionary
func RegisterConstant(name string, value interface{}) {
	globalDictionary.AddConstant(name, value)
}

func (d *Dictionary) AddConstant(name string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = &Constant{Name: name, Value: value}
	d.cached = nil
}

func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enumerations[name] = &Enumeration{Name: name, Values: append([]string(nil), values...)}
	d.cached = nil
}

// SetBuildVersions records the toolchain the firmware was built with
func (d *Dictionary) SetBuildVersions(build string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.build = build
	d.cached = nil
}

// BuildDictionary renders and caches the document. Call it after every
// command is registered; later registrations need another call.
func (d *Dictionary) BuildDictionary() {
	// registry lock first, never while holding ours
	commands, responses := d.commandReg.GetCommandsAndResponses()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = d.render(commands, responses)
	DebugPrintln("[DICT] " + itoa(len(d.cached)) + " bytes")
}

// Generate returns the document, rendering it if nothing is cached
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}

	commands, responses := d.commandReg.GetCommandsAndResponses()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.render(commands, responses)
}

// render writes the JSON by hand; encoding/json is too heavy for AVR.
// Names are plain ASCII identifiers and formats, so nothing is escaped.
func (d *Dictionary) render(commands, responses map[string]int) []byte {
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":"`...)
	out = append(out, d.version...)
	out = append(out, `","build_versions":"`...)
	out = append(out, d.build...)
	out = append(out, `","config":{`...)

	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, name...)
		out = append(out, `":"`...)
		out = append(out, valueToString(d.constants[name].Value)...)
		out = append(out, '"')
	}

	out = append(out, `},"commands":`...)
	out = appendIDMap(out, commands)
	out = append(out, `,"responses":`...)
	out = appendIDMap(out, responses)

	if len(d.enumerations) > 0 {
		out = append(out, `,"enumerations":{`...)
		names = names[:0]
		for name := range d.enumerations {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, '"')
			out = append(out, name...)
			out = append(out, `":{`...)
			first := true
			for v, label := range d.enumerations[name].Values {
				if label == "" {
					continue
				}
				if !first {
					out = append(out, ',')
				}
				out = append(out, '"')
				out = append(out, label...)
				out = append(out, `":`...)
				out = append(out, itoa(v)...)
				first = false
			}
			out = append(out, '}')
		}
		out = append(out, '}')
	}

	return append(out, '}')
}

// appendIDMap writes {"key":id,...} ordered by id
func appendIDMap(out []byte, m map[string]int) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return m[keys[i]] < m[keys[j]] })

	out = append(out, '{')
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, k...)
		out = append(out, `":`...)
		out = append(out, itoa(m[k])...)
	}
	return append(out, '}')
}

// GetChunk returns count bytes of the document from offset, or an empty
// slice past the end. The result is a copy.
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}
