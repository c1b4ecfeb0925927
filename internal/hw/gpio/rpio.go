package gpio

import (
	"fmt"
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// edgePollInterval is how often the event detect status register is sampled
// while waiting for an edge.
const edgePollInterval = 5 * time.Millisecond

// RPiDriver is the real implementation for Raspberry Pi using go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiRealDriver creates a real GPIO driver for Raspberry Pi.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
	}, nil
}

func (r *RPiDriver) SetupInput(pin int, pull Pull, edge Edge) error {
	debug.GPIO("SetupInput", pin, pull)

	p := rpio.Pin(pin)
	p.Input()

	switch pull {
	case PullOff:
		p.PullOff()
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		return fmt.Errorf("unknown pull mode: %d", pull)
	}

	switch edge {
	case NoEdge:
		p.Detect(rpio.NoEdge)
	case RisingEdge:
		p.Detect(rpio.RiseEdge)
	case FallingEdge:
		p.Detect(rpio.FallEdge)
	case BothEdges:
		p.Detect(rpio.AnyEdge)
	default:
		return fmt.Errorf("unknown edge mode: %d", edge)
	}

	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) WaitForEdge(pin int, timeout time.Duration) (bool, error) {
	p, ok := r.pins[pin]
	if !ok {
		return false, fmt.Errorf("pin %d is not set up as input", pin)
	}

	// Clear any edge latched before this wait.
	p.EdgeDetected()

	deadline := time.Now().Add(timeout)
	for {
		if p.EdgeDetected() {
			debug.GPIO("EdgeDetected", pin, true)
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		time.Sleep(min(edgePollInterval, remaining))
	}
}

func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	// Disable edge detection and release pulls (safe state)
	for pin, p := range r.pins {
		debug.Verbose("Resetting pin %d", pin)
		p.Detect(rpio.NoEdge)
		p.PullOff()
	}
	r.pins = make(map[int]rpio.Pin)

	return rpio.Close()
}
