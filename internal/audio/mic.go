// Package audio captures microphone input and measures its energy.
package audio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gordonklaus/portaudio"
)

// Init initializes PortAudio. Every successful call must be paired with
// Terminate.
func Init() error { return portaudio.Initialize() }

func Terminate() error { return portaudio.Terminate() }

// Mic wraps a mono PortAudio capture stream with a configurable buffer size.
type Mic struct {
	stream     *portaudio.Stream
	buf        []int16
	sampleRate int
}

// NewMic opens a PortAudio capture stream with the given sample rate and buffer size (in frames).
func NewMic(sampleRate, framesPerBuffer int) (*Mic, error) {
	buf := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		return nil, err
	}
	return &Mic{stream: stream, buf: buf, sampleRate: sampleRate}, nil
}

func (m *Mic) SampleRate() int { return m.sampleRate }

func (m *Mic) Start() error { return m.stream.Start() }
func (m *Mic) Stop() error  { return m.stream.Stop() }
func (m *Mic) Close() error { return m.stream.Close() }

// ReadFrame blocks for one buffer of samples and returns a copy of it.
func (m *Mic) ReadFrame() ([]int16, error) {
	if err := m.stream.Read(); err != nil {
		return nil, err
	}
	frame := make([]int16, len(m.buf))
	copy(frame, m.buf)
	return frame, nil
}

// Stream reads from the mic and writes PCM16-LE to w until an error or stop.
// It must not be used together with ReadFrame.
func (m *Mic) Stream(w io.Writer) error {
	var out bytes.Buffer
	out.Grow(len(m.buf) * 2) // pre-allocate: int16 = 2 bytes per sample
	for {
		if err := m.stream.Read(); err != nil {
			return err
		}
		out.Reset()
		if err := binary.Write(&out, binary.LittleEndian, m.buf); err != nil {
			return err
		}
		if _, err := w.Write(out.Bytes()); err != nil {
			return err
		}
	}
}
