package session

import (
	"time"

	"github.com/sjawhar/chanti/internal/normalize"
)

// Config holds the listening parameters of a Loop.
type Config struct {
	WakePhrase         string
	WakeTimeout        time.Duration
	WakePhraseLimit    time.Duration
	CommandTimeout     time.Duration
	CommandPhraseLimit time.Duration
	Calibration        time.Duration
	// Recalibration is the ambient sample taken before every wake attempt.
	// Zero disables it.
	Recalibration time.Duration
	FloorRatio    float64
	MinFloor      float64
	// ErrorBackoff is the pause after a backend error.
	ErrorBackoff time.Duration
}

func DefaultConfig() Config {
	return Config{
		WakePhrase:         normalize.DefaultWakePhrase,
		WakeTimeout:        5 * time.Second,
		WakePhraseLimit:    3 * time.Second,
		CommandTimeout:     5 * time.Second,
		CommandPhraseLimit: 5 * time.Second,
		Calibration:        2 * time.Second,
		Recalibration:      500 * time.Millisecond,
		FloorRatio:         0.8,
		MinFloor:           300,
		ErrorBackoff:       time.Second,
	}
}

// commandFloor is the energy floor used while capturing a command.
func (c Config) commandFloor(baseline float64) float64 {
	return max(baseline*c.FloorRatio, c.MinFloor)
}

func (c Config) request(phase Phase, floor float64) ListenRequest {
	if phase == CapturingCommand {
		return ListenRequest{Phase: phase.String(), Timeout: c.CommandTimeout, PhraseLimit: c.CommandPhraseLimit, EnergyFloor: floor}
	}
	return ListenRequest{Phase: phase.String(), Timeout: c.WakeTimeout, PhraseLimit: c.WakePhraseLimit, EnergyFloor: floor}
}
