package input

import (
	"fmt"
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/cjeanneret/GoBooth/internal/hw/gpio"
	"github.com/cjeanneret/GoBooth/internal/hw/serial"
)

// Event is the unified result of one poll cycle.
type Event int

const (
	None Event = iota
	Capture
	Exit
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case Capture:
		return "capture"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Config holds the trigger sources of a Multiplexer.
type Config struct {
	CapturePin     int
	ExitPin        int // 0 = no exit button
	CaptureTimeout time.Duration
	ExitTimeout    time.Duration
	AutoPress      bool // every poll reports a capture press
}

// Multiplexer polls the capture button, the optional exit button and the
// serial trigger line, and folds them into a single Event.
type Multiplexer struct {
	gpio gpio.Driver
	line serial.Line
	cfg  Config
}

// NewMultiplexer claims the button pins as pull-up inputs with falling-edge
// detection. line may be nil when no serial trigger is wired.
func NewMultiplexer(g gpio.Driver, line serial.Line, cfg Config) (*Multiplexer, error) {
	if err := g.SetupInput(cfg.CapturePin, gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("setup capture pin %d: %w", cfg.CapturePin, err)
	}
	if cfg.ExitPin > 0 {
		if err := g.SetupInput(cfg.ExitPin, gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("setup exit pin %d: %w", cfg.ExitPin, err)
		}
	}
	return &Multiplexer{gpio: g, line: line, cfg: cfg}, nil
}

// MaxBlock is the longest a single Poll can block.
func (m *Multiplexer) MaxBlock() time.Duration {
	if m.cfg.ExitPin > 0 {
		return m.cfg.CaptureTimeout + m.cfg.ExitTimeout
	}
	return m.cfg.CaptureTimeout
}

// Poll waits for the capture button, then the exit button, then checks the
// serial line. Exit wins over Capture when both fire in the same cycle.
// Pending serial bytes are discarded when they count as a press.
func (m *Multiplexer) Poll() (Event, error) {
	pressed, err := m.gpio.WaitForEdge(m.cfg.CapturePin, m.cfg.CaptureTimeout)
	if err != nil {
		return None, fmt.Errorf("wait for capture button: %w", err)
	}

	if m.cfg.ExitPin > 0 {
		exit, err := m.gpio.WaitForEdge(m.cfg.ExitPin, m.cfg.ExitTimeout)
		if err != nil {
			return None, fmt.Errorf("wait for exit button: %w", err)
		}
		if exit {
			debug.Live("Exit button pressed")
			return Exit, nil
		}
	}

	if m.line != nil {
		n, err := m.line.Buffered()
		if err != nil {
			return None, fmt.Errorf("check serial trigger: %w", err)
		}
		if n > 0 {
			debug.Live("External button pressed")
			if err := m.line.Discard(); err != nil {
				return None, fmt.Errorf("discard serial trigger: %w", err)
			}
			pressed = true
		}
	}

	if m.cfg.AutoPress {
		pressed = true
	}

	if pressed {
		return Capture, nil
	}
	return None, nil
}

// Reset drops serial bytes that arrived while no one was polling.
func (m *Multiplexer) Reset() error {
	if m.line == nil {
		return nil
	}
	if err := m.line.Discard(); err != nil {
		return fmt.Errorf("reset serial trigger: %w", err)
	}
	return nil
}
