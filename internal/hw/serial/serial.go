package serial

import "github.com/cjeanneret/GoBooth/internal/debug"

// Line is a byte-stream input used purely as a trigger signal: any bytes
// present count as a button press.
type Line interface {
	// Buffered returns the number of bytes waiting to be read.
	Buffered() (int, error)
	// Discard drops all pending input.
	Discard() error
	Close() error
}

// Mock is an in-memory Line. Set Pending to simulate received bytes.
type Mock struct {
	Pending  int
	Discards int
	Closed   bool
}

func (m *Mock) Buffered() (int, error) {
	return m.Pending, nil
}

func (m *Mock) Discard() error {
	debug.Trace("Serial discard (mock): %d bytes", m.Pending)
	m.Pending = 0
	m.Discards++
	return nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}
