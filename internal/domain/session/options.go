package session

import (
	"time"

	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/scan"
	"github.com/rpggio/tracereplay/internal/trace"
)

// DefaultStepPause spaces RunAll pulses.
const DefaultStepPause = 400 * time.Millisecond

// Config controls how sessions replay.
type Config struct {
	TotalPulses  int
	StepPause    time.Duration
	ScanDelay    time.Duration
	DefaultTrace string
}

// DefaultConfig returns the standard replay settings.
func DefaultConfig() Config {
	return Config{
		TotalPulses:  pulse.DefaultTotal,
		StepPause:    DefaultStepPause,
		ScanDelay:    scan.DefaultDelay,
		DefaultTrace: trace.DefaultTrace,
	}
}

func (c Config) withDefaults() Config {
	if c.TotalPulses <= 0 {
		c.TotalPulses = pulse.DefaultTotal
	}
	if c.DefaultTrace == "" {
		c.DefaultTrace = trace.DefaultTrace
	}
	return c
}
