package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudio captures from a PortAudio input device using blocking reads
type PortAudio struct {
	SampleRate  float64
	DeviceName  string // substring match, empty for the default input
	OpenTimeout time.Duration
}

// DeviceInfo describes one capture-capable device
type DeviceInfo struct {
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

// NewPortAudio returns an input for the named device (empty = default)
func NewPortAudio(sampleRate float64, deviceName string, openTimeout time.Duration) *PortAudio {
	return &PortAudio{
		SampleRate:  sampleRate,
		DeviceName:  deviceName,
		OpenTimeout: openTimeout,
	}
}

// Open initializes PortAudio and starts a mono 16-bit input stream
func (p *PortAudio) Open(ctx context.Context, frameSize int) (Stream, error) {
	timeout := make(chan struct{})
	if p.OpenTimeout > 0 {
		t := time.AfterFunc(p.OpenTimeout, func() { close(timeout) })
		defer t.Stop()
	}
	return openWithTimeout(ctx, timeout, func() (Stream, error) {
		return p.open(frameSize)
	})
}

func (p *PortAudio) open(frameSize int) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	dev, err := p.findDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = p.SampleRate
	params.FramesPerBuffer = frameSize

	buf := make([]int16, frameSize)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open %q: %w", dev.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start %q: %w", dev.Name, err)
	}

	return &paStream{stream: stream, buf: buf}, nil
}

func (p *PortAudio) findDevice() (*portaudio.DeviceInfo, error) {
	if p.DeviceName == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	want := strings.ToLower(p.DeviceName)
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDevice, p.DeviceName)
}

// ListDevices returns every device with at least one input channel
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		info := DeviceInfo{
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    def != nil && def.Name == d.Name,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}

// paStream reads whole buffers from a started PortAudio stream
type paStream struct {
	stream *portaudio.Stream
	buf    []int16

	mu     sync.Mutex
	closed bool
}

func (s *paStream) Read(n int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]float64, 0, n)
	for len(out) < n {
		err := s.stream.Read()
		// an overflow still fills the buffer; the dropped samples are gone either way
		if err != nil && !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		for _, v := range s.buf {
			if len(out) == n {
				break
			}
			out = append(out, float64(v))
		}
	}
	return out, nil
}

func (s *paStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
