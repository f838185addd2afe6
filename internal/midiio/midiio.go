// Package midiio is the MIDI transport boundary: non-blocking polling of
// note events from an input port, port enumeration, and note sends to an
// output port.
package midiio

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// Event is one note message from the input port.
type Event struct {
	On       bool
	Note     uint8
	Velocity uint8
}

// Ports lists the names of available MIDI input and output ports.
func Ports() (inputs, outputs []string) {
	for _, p := range gomidi.GetInPorts() {
		inputs = append(inputs, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outputs = append(outputs, p.String())
	}
	return inputs, outputs
}

// Source captures note events from one input port into a bounded buffer
// drained by Poll. The driver callback never blocks: when the buffer is
// full, the oldest pending events win and new ones are dropped.
type Source struct {
	in     drivers.In
	stop   func()
	events chan Event
}

// OpenSource opens the named input port, or the first available port
// when name is empty.
func OpenSource(name string) (*Source, error) {
	in, err := findIn(name)
	if err != nil {
		return nil, err
	}
	s := &Source{in: in, events: make(chan Event, 128)}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		var ch, note, vel uint8
		var ev Event
		switch {
		case msg.GetNoteOn(&ch, &note, &vel):
			ev = Event{On: true, Note: note, Velocity: vel}
		case msg.GetNoteOff(&ch, &note, &vel):
			ev = Event{On: false, Note: note, Velocity: vel}
		default:
			return
		}
		select {
		case s.events <- ev:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("midiio: open input %q: %w", in.String(), err)
	}
	s.stop = stop
	return s, nil
}

func findIn(name string) (drivers.In, error) {
	if name == "" {
		ins := gomidi.GetInPorts()
		if len(ins) == 0 {
			return nil, fmt.Errorf("midiio: no MIDI input ports")
		}
		return ins[0], nil
	}
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("midiio: input port %q: %w", name, err)
	}
	return in, nil
}

// Port returns the name of the open input port.
func (s *Source) Port() string { return s.in.String() }

// Poll returns the next pending event without blocking. ok is false when
// no event is waiting.
func (s *Source) Poll() (ev Event, ok bool) {
	select {
	case ev = <-s.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// Close stops capture and releases the port.
func (s *Source) Close() error {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	return nil
}

// Sender pushes note messages to one output port.
type Sender struct {
	out  drivers.Out
	send func(gomidi.Message) error
}

// OpenSender opens the named output port, or the first available port
// when name is empty.
func OpenSender(name string) (*Sender, error) {
	out, err := findOut(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midiio: open output %q: %w", out.String(), err)
	}
	return &Sender{out: out, send: send}, nil
}

func findOut(name string) (drivers.Out, error) {
	if name == "" {
		outs := gomidi.GetOutPorts()
		if len(outs) == 0 {
			return nil, fmt.Errorf("midiio: no MIDI output ports")
		}
		return outs[0], nil
	}
	out, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("midiio: output port %q: %w", name, err)
	}
	return out, nil
}

// Port returns the name of the open output port.
func (s *Sender) Port() string { return s.out.String() }

func (s *Sender) NoteOn(channel, note, velocity uint8) error {
	return s.send(gomidi.NoteOn(channel, note, velocity))
}

func (s *Sender) NoteOff(channel, note uint8) error {
	return s.send(gomidi.NoteOff(channel, note))
}

// CloseDriver releases the underlying MIDI driver. Call once at process
// shutdown.
func CloseDriver() {
	gomidi.CloseDriver()
}
