package hover

import (
	"fmt"
	"strings"
	"time"

	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// Frame is the sign convention of incoming acceleration and thrust.
type Frame int

const (
	// FrameUp means positive values point up (thrust > 0, climbing accZ > 0).
	FrameUp Frame = iota
	// FrameNED means z points down, as flight controllers publish it.
	// Both acceleration and thrust are negated before fusion.
	FrameNED
)

// ParseFrame parses "up" or "ned" (case insensitive).
func ParseFrame(s string) (Frame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "":
		return FrameUp, nil
	case "ned":
		return FrameNED, nil
	}
	return FrameUp, fmt.Errorf("unknown frame %q (want \"up\" or \"ned\")", s)
}

func (f Frame) String() string {
	if f == FrameNED {
		return "ned"
	}
	return "up"
}

// Sample is one control cycle worth of input.
type Sample struct {
	Time   time.Time
	AccZ   float64 // vertical acceleration, m/s^2
	Thrust float64 // normalized collective thrust
	Landed bool
}

// Record is what the tracker produced for one Sample.
type Record struct {
	Time   time.Time
	Status hoverthrust.Status
	Valid  bool // estimate may be used by the controller
	Fused  bool // a measurement update was attempted
	Landed bool
}

// Sink consumes tracker output, e.g. a store or a CSV writer.
type Sink interface {
	Publish(rec Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec Record) error

// Publish calls f(rec).
func (f SinkFunc) Publish(rec Record) error {
	return f(rec)
}
