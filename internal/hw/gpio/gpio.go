package gpio

import (
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
)

// Pull selects the internal resistor of an input pin.
type Pull int

const (
	PullOff Pull = iota
	PullUp
	PullDown
)

// Edge selects which transitions an input pin reports.
type Edge int

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

// Driver defines the abstract interface for reading GPIO inputs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	// SetupInput configures pin as an input with the given pull resistor
	// and enables detection of edge.
	SetupInput(pin int, pull Pull, edge Edge) error
	// WaitForEdge blocks up to timeout for an edge on pin. It reports
	// whether an edge was seen. Edges that happened before the call are ignored.
	WaitForEdge(pin int, timeout time.Duration) (bool, error)
	// Close releases every pin claimed by the driver.
	Close() error
}

// MockDriver is a test implementation that simply logs actions.
// Used for development on PC: no edge ever fires.
type MockDriver struct{}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return &MockDriver{}, nil
	}
	return NewRPiRealDriver()
}

func (m *MockDriver) SetupInput(pin int, pull Pull, edge Edge) error {
	debug.GPIO("SetupInput", pin, pull)
	return nil
}

// WaitForEdge sleeps for the whole timeout so callers keep their real cadence.
func (m *MockDriver) WaitForEdge(pin int, timeout time.Duration) (bool, error) {
	debug.GPIO("WaitForEdge", pin, timeout)
	time.Sleep(timeout)
	return false, nil
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	return nil
}
