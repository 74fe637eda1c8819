package audio

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

const (
	pcmChannels = 1
	pcmBitDepth = 16
	wavPCM      = 1
)

// UtteranceWriter stores captured utterances as mono 16-bit WAV files.
type UtteranceWriter struct {
	fs         afero.Fs
	dir        string
	sampleRate int
	now        func() time.Time
	seq        atomic.Uint64
}

func NewUtteranceWriter(fs afero.Fs, dir string, sampleRate int) *UtteranceWriter {
	if dir == "" {
		dir = filepath.Join("data", "utterances")
	}
	return &UtteranceWriter{fs: fs, dir: dir, sampleRate: sampleRate, now: time.Now}
}

func (w *UtteranceWriter) Fs() afero.Fs { return w.fs }

// Write encodes samples into a new file and returns its path.
func (w *UtteranceWriter) Write(samples []int16) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create utterance directory: %w", err)
	}

	name := fmt.Sprintf("utterance_%s_%d.wav", w.now().UTC().Format("20060102-150405"), w.seq.Add(1))
	path := filepath.Join(w.dir, name)
	f, err := w.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create utterance file: %w", err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, w.sampleRate, pcmBitDepth, pcmChannels, wavPCM)
	err = enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: pcmChannels, SampleRate: w.sampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	})
	if err == nil {
		err = enc.Close()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = w.fs.Remove(path)
		return "", fmt.Errorf("encode utterance: %w", err)
	}
	return path, nil
}

func (w *UtteranceWriter) Remove(path string) error {
	return w.fs.Remove(path)
}

// ReadWAV decodes a mono or multi-channel WAV file into samples and its
// sample rate.
func ReadWAV(fs afero.Fs, path string) ([]int16, int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, int(dec.SampleRate), nil
}
