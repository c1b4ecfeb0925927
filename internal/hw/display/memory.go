package display

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/cjeanneret/GoBooth/internal/debug"
)

// ErrUnknownOverlay is returned for handles that are not live on a surface.
var ErrUnknownOverlay = errors.New("unknown overlay")

// Overlay describes a live overlay.
type Overlay struct {
	Handle Handle
	Layer  int
	Alpha  uint8
	Size   image.Point // source image size
	Padded image.Point // size after block alignment
}

// Memory is a Surface that keeps overlays in memory without drawing them.
// It backs headless runs and tests.
type Memory struct {
	next     Handle
	overlays map[Handle]*Overlay
	closed   bool
}

// NewMemory creates an empty in-memory surface.
func NewMemory() *Memory {
	return &Memory{overlays: make(map[Handle]*Overlay)}
}

func (m *Memory) AddOverlay(img image.Image, layer int) (Handle, error) {
	if m.closed {
		return NoOverlay, errors.New("surface is closed")
	}
	p := Pad(img)
	m.next++
	h := m.next
	m.overlays[h] = &Overlay{
		Handle: h,
		Layer:  layer,
		Alpha:  255,
		Size:   p.Size,
		Padded: p.Bounds().Size(),
	}
	debug.Trace("Surface (memory): add handle=%d layer=%d size=%v", h, layer, p.Size)
	return h, nil
}

func (m *Memory) SetAlpha(h Handle, alpha uint8) error {
	o, ok := m.overlays[h]
	if !ok {
		return fmt.Errorf("set alpha on %d: %w", h, ErrUnknownOverlay)
	}
	o.Alpha = alpha
	return nil
}

func (m *Memory) RemoveOverlay(h Handle) error {
	if _, ok := m.overlays[h]; !ok {
		return fmt.Errorf("remove %d: %w", h, ErrUnknownOverlay)
	}
	delete(m.overlays, h)
	debug.Trace("Surface (memory): remove handle=%d", h)
	return nil
}

// Overlays returns the live overlays bottom to top.
func (m *Memory) Overlays() []Overlay {
	out := make([]Overlay, 0, len(m.overlays))
	for _, o := range m.overlays {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Layer != out[j].Layer {
			return out[i].Layer < out[j].Layer
		}
		return out[i].Handle < out[j].Handle
	})
	return out
}

// Lookup returns the live overlay for h.
func (m *Memory) Lookup(h Handle) (Overlay, bool) {
	o, ok := m.overlays[h]
	if !ok {
		return Overlay{}, false
	}
	return *o, true
}

func (m *Memory) Close() error {
	m.overlays = make(map[Handle]*Overlay)
	m.closed = true
	return nil
}
