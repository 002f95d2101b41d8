package core

import (
	"errors"
	"sync"

	"gamer/protocol"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandHandler decodes its own arguments from data and runs the command
type CommandHandler func(data *[]byte) error

// Command is one entry of the link's message table. Responses have no handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "x=%c y=%c value=%c"
	Handler CommandHandler
}

// ResponseSender frames outgoing messages; *protocol.Transport implements it
type ResponseSender interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

// CommandRegistry assigns message IDs in registration order
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[uint16]*Command
	nameToID map[string]uint16
	nextID   uint16
	sender   ResponseSender
}

var globalRegistry = NewCommandRegistry()

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[uint16]*Command),
		nameToID: make(map[string]uint16),
	}
}

// RegisterCommand registers a command on the global registry
func RegisterCommand(name string, format string, handler CommandHandler) uint16 {
	return globalRegistry.Register(name, format, handler)
}

// Register adds a message and returns its ID. Registering a name again
// keeps its ID and replaces format and handler.
func (r *CommandRegistry) Register(name string, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.nameToID[name]; exists {
		cmd := r.commands[id]
		cmd.Format = format
		cmd.Handler = handler
		return id
	}

	id := r.nextID
	r.nextID++
	r.commands[id] = &Command{ID: id, Name: name, Format: format, Handler: handler}
	r.nameToID[name] = id
	return id
}

func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[id]
	return cmd, ok
}

func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler for cmdID
func (r *CommandRegistry) Dispatch(cmdID uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(cmdID)
	if !ok || cmd.Handler == nil {
		return errors.New(ErrUnknownCommand.Error() + " " + utoa(uint32(cmdID)))
	}
	return cmd.Handler(data)
}

// SetSender sets where Respond writes
func (r *CommandRegistry) SetSender(s ResponseSender) {
	r.mu.Lock()
	r.sender = s
	r.mu.Unlock()
}

// Respond sends the named response. It is dropped when no sender is set.
func (r *CommandRegistry) Respond(name string, args func(output protocol.OutputBuffer)) {
	r.mu.RLock()
	sender := r.sender
	id, ok := r.nameToID[name]
	r.mu.RUnlock()

	if sender == nil {
		return
	}
	if !ok {
		panic("response not registered: " + name)
	}
	sender.SendCommand(id, args)
}

// GetCommandsAndResponses splits the table for the data dictionary, keyed
// by "name format".
func (r *CommandRegistry) GetCommandsAndResponses() (commands map[string]int, responses map[string]int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands = make(map[string]int)
	responses = make(map[string]int)
	for id, cmd := range r.commands {
		key := cmd.Name
		if cmd.Format != "" {
			key += " " + cmd.Format
		}
		if cmd.Handler != nil {
			commands[key] = int(id)
		} else {
			responses[key] = int(id)
		}
	}
	return commands, responses
}

// DispatchCommand dispatches on the global registry
func DispatchCommand(cmdID uint16, data *[]byte) error {
	return globalRegistry.Dispatch(cmdID, data)
}

// SetGlobalTransport connects the global registry to the link
func SetGlobalTransport(transport *protocol.Transport) {
	globalRegistry.SetSender(transport)
}

func GetGlobalRegistry() *CommandRegistry {
	return globalRegistry
}
