package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// CaptureSampleRate matches what the recognizer expects.
	CaptureSampleRate = 16000
	// FrameSamples is 30ms at CaptureSampleRate, a valid WebRTC VAD frame.
	FrameSamples = 480

	playbackBuffer = 1024
)

// Utterance is one captured single-utterance recording.
type Utterance struct {
	Samples    []int16
	SampleRate int
	Voiced     bool
	Duration   time.Duration
}

type frameReader interface {
	ReadFrame() ([]int16, error)
	Close() error
}

// Microphone captures from the default input device.
type Microphone struct {
	mu       sync.Mutex
	detector VoiceDetector
	endpoint EndpointConfig
	open     func() (frameReader, error)
}

func NewMicrophone(detector VoiceDetector, initialSilence, endSilence, maxUtterance time.Duration) *Microphone {
	return &Microphone{
		detector: detector,
		endpoint: EndpointConfig{
			Frame:          time.Second * FrameSamples / CaptureSampleRate,
			InitialSilence: initialSilence,
			EndSilence:     endSilence,
			MaxUtterance:   maxUtterance,
		},
		open: openDefaultInput,
	}
}

// CaptureUtterance records until the speaker stops, initial silence runs out
// or the maximum utterance length is reached.
func (m *Microphone) CaptureUtterance(ctx context.Context) (Utterance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in, err := m.open()
	if err != nil {
		return Utterance{}, err
	}
	defer in.Close()

	ep := NewEndpointer(m.endpoint)
	var samples []int16

	for {
		if err := ctx.Err(); err != nil {
			return Utterance{}, err
		}

		frame, err := in.ReadFrame()
		if err != nil {
			return Utterance{}, fmt.Errorf("read microphone: %w", err)
		}
		samples = append(samples, frame...)

		voiced, err := m.detector.IsSpeech(frame)
		if err != nil {
			return Utterance{}, err
		}
		if ep.Push(voiced) {
			break
		}
	}

	return Utterance{
		Samples:    samples,
		SampleRate: CaptureSampleRate,
		Voiced:     ep.Heard(),
		Duration:   ep.Elapsed(),
	}, nil
}

type portaudioInput struct {
	stream *portaudio.Stream
	buf    []int16
}

func openDefaultInput() (frameReader, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	buf := make([]int16, FrameSamples)
	stream, err := portaudio.OpenDefaultStream(1, 0, CaptureSampleRate, len(buf), buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	return &portaudioInput{stream: stream, buf: buf}, nil
}

func (p *portaudioInput) ReadFrame() ([]int16, error) {
	if err := p.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, err
	}
	frame := make([]int16, len(p.buf))
	copy(frame, p.buf)
	return frame, nil
}

func (p *portaudioInput) Close() error {
	_ = p.stream.Stop()
	err := p.stream.Close()
	portaudio.Terminate()
	return err
}

// Speaker plays PCM to the default output device.
type Speaker struct {
	mu sync.Mutex
}

func NewSpeaker() *Speaker {
	return &Speaker{}
}

// Play blocks until every sample has been handed to the device and the stream drained.
func (s *Speaker) Play(ctx context.Context, samples []int16, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(samples) == 0 {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buf := make([]int16, playbackBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}

	for pos := 0; pos < len(samples); pos += len(buf) {
		if err := ctx.Err(); err != nil {
			_ = stream.Abort()
			return err
		}

		n := copy(buf, samples[pos:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			_ = stream.Abort()
			return fmt.Errorf("write output stream: %w", err)
		}
	}

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop output stream: %w", err)
	}
	return nil
}

type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	DefaultInput      bool
	DefaultOutput     bool
}

func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defIn, defOut string
	if d, err := portaudio.DefaultInputDevice(); err == nil && d != nil {
		defIn = d.Name
	}
	if d, err := portaudio.DefaultOutputDevice(); err == nil && d != nil {
		defOut = d.Name
	}

	out := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		out = append(out, DeviceInfo{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			DefaultInput:      d.Name == defIn,
			DefaultOutput:     d.Name == defOut,
		})
	}
	return out, nil
}
