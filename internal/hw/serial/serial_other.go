//go:build !linux

package serial

import "fmt"

// Port is unavailable outside Linux.
type Port struct{}

// Open always fails outside Linux.
func Open(device string, baud int) (*Port, error) {
	return nil, fmt.Errorf("serial trigger line %s is only supported on linux", device)
}

func (p *Port) Buffered() (int, error) { return 0, nil }

func (p *Port) Discard() error { return nil }

func (p *Port) Close() error { return nil }
