package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	ErrNoPort      = errors.New("no MIDI input port")
	ErrScanTimeout = errors.New("timed out listing MIDI ports")
)

// ScanTimeout bounds a port scan. CoreMIDI can hang.
var ScanTimeout = 3 * time.Second

// Port is a MIDI input a Keyboard listens to
type Port interface {
	Name() string
	// Listen delivers every incoming message to fn until stop is called
	Listen(fn func(msg gomidi.Message)) (stop func(), err error)
}

// inPort is a driver input port
type inPort struct {
	in drivers.In
}

func (p inPort) Name() string { return p.in.String() }

func (p inPort) Listen(fn func(msg gomidi.Message)) (func(), error) {
	return gomidi.ListenTo(p.in, func(msg gomidi.Message, timestampms int32) {
		fn(msg)
	})
}

func scan() ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ins := <-ch:
		return ins, nil
	case <-time.After(ScanTimeout):
		return nil, ErrScanTimeout
	}
}

// ListPorts names every MIDI input port
func ListPorts() ([]string, error) {
	ins, err := scan()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// FindPort returns the first input whose name contains name, ignoring
// case. An empty name picks the first input.
func FindPort(name string) (Port, error) {
	ins, err := scan()
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(name)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), want) {
			return inPort{in: in}, nil
		}
	}
	if name == "" {
		return nil, ErrNoPort
	}
	return nil, fmt.Errorf("%w: %q", ErrNoPort, name)
}

// Close releases the MIDI driver
func Close() {
	gomidi.CloseDriver()
}
