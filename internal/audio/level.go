package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// AmbientRatio scales a measured ambient level into an energy floor, so that
// steady background noise stays below it.
const AmbientRatio = 1.5

// ErrNoAudio is returned when a measurement window saw no samples.
var ErrNoAudio = errors.New("no audio captured")

// FrameReader yields successive mono PCM16 frames.
type FrameReader interface {
	ReadFrame() ([]int16, error)
}

// RMS is the root mean square of samples on the int16 scale.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// RMSBytes is RMS over little-endian PCM16 bytes. A trailing odd byte is
// ignored.
func RMSBytes(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// AmbientFloor turns an average ambient level into an energy floor.
func AmbientFloor(level float64) float64 { return level * AmbientRatio }

// frameDuration is how much audio a frame of n samples holds.
func frameDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

// Calibrate reads d worth of audio from r and returns the energy floor its
// average level implies.
func Calibrate(ctx context.Context, r FrameReader, sampleRate int, d time.Duration) (float64, error) {
	var (
		heard  time.Duration
		sum    float64
		frames int
	)
	for heard < d || frames == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame, err := r.ReadFrame()
		if err != nil {
			return 0, err
		}
		if len(frame) == 0 {
			return 0, ErrNoAudio
		}
		sum += RMS(frame)
		frames++
		heard += frameDuration(len(frame), sampleRate)
	}
	return AmbientFloor(sum / float64(frames)), nil
}
