package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/cjeanneret/GoBooth/internal/hw/display"
)

// Role names what an overlay is for. The Manager keeps at most one live
// overlay per role.
type Role string

const (
	IntroA    Role = "intro-a"
	IntroB    Role = "intro-b"
	Countdown Role = "countdown"
	Playback  Role = "playback"
)

// Alpha values for SetAlpha.
const (
	Transparent uint8 = 0
	Opaque      uint8 = 255
)

// ErrNoOverlay is returned when a role has no live overlay.
var ErrNoOverlay = errors.New("no live overlay for role")

// Manager is the bookkeeping layer over a display.Surface.
//
// Replacing a role's overlay always adds the new overlay before removing the
// old one, so the role is never blank on screen during a transition.
type Manager struct {
	surface display.Surface
	live    map[Role]display.Handle
}

// NewManager creates a Manager drawing on s.
func NewManager(s display.Surface) *Manager {
	return &Manager{
		surface: s,
		live:    make(map[Role]display.Handle),
	}
}

// Show loads the image at path and makes it role's persistent overlay.
func (m *Manager) Show(role Role, path string, layer int) (display.Handle, error) {
	img, err := display.LoadImage(path)
	if err != nil {
		return display.NoOverlay, err
	}
	return m.place(role, img, layer)
}

// ShowText renders text at the given pixel size as role's persistent overlay.
func (m *Manager) ShowText(role Role, text string, size, layer int) (display.Handle, error) {
	return m.place(role, display.RenderText(text, size), layer)
}

func (m *Manager) place(role Role, img image.Image, layer int) (display.Handle, error) {
	h, err := m.surface.AddOverlay(img, layer)
	if err != nil {
		return display.NoOverlay, fmt.Errorf("add %s overlay: %w", role, err)
	}
	debug.Overlay("add", string(role), uint64(h), layer)

	prev, had := m.live[role]
	m.live[role] = h
	if had {
		if err := m.surface.RemoveOverlay(prev); err != nil {
			return h, fmt.Errorf("remove previous %s overlay: %w", role, err)
		}
		debug.Overlay("remove", string(role), uint64(prev), layer)
	}
	return h, nil
}

// ShowFor shows the image at path for d, then removes it. The overlay is not
// tracked by any role. If ctx is cancelled the overlay is removed early and
// the context error returned.
func (m *Manager) ShowFor(ctx context.Context, path string, layer int, d time.Duration) error {
	img, err := display.LoadImage(path)
	if err != nil {
		return err
	}
	h, err := m.surface.AddOverlay(img, layer)
	if err != nil {
		return fmt.Errorf("add overlay %s: %w", path, err)
	}
	debug.Overlay("add", "transient", uint64(h), layer)

	waitErr := Sleep(ctx, d)
	if err := m.surface.RemoveOverlay(h); err != nil {
		return fmt.Errorf("remove overlay %s: %w", path, err)
	}
	debug.Overlay("remove", "transient", uint64(h), layer)
	return waitErr
}

// Hide removes the overlay h. It is a no-op for display.NoOverlay.
func (m *Manager) Hide(h display.Handle) error {
	if h == display.NoOverlay {
		return nil
	}
	for role, live := range m.live {
		if live == h {
			delete(m.live, role)
		}
	}
	if err := m.surface.RemoveOverlay(h); err != nil {
		return fmt.Errorf("hide overlay %d: %w", h, err)
	}
	debug.Overlay("remove", "", uint64(h), 0)
	return nil
}

// Release hides role's overlay, if any.
func (m *Manager) Release(role Role) error {
	return m.Hide(m.live[role])
}

// SetAlpha changes the transparency of role's overlay in place.
func (m *Manager) SetAlpha(role Role, alpha uint8) error {
	h, ok := m.live[role]
	if !ok {
		return fmt.Errorf("set alpha on %s: %w", role, ErrNoOverlay)
	}
	if err := m.surface.SetAlpha(h, alpha); err != nil {
		return fmt.Errorf("set alpha on %s: %w", role, err)
	}
	debug.Trace("Overlay %s alpha=%d", role, alpha)
	return nil
}

// Current returns role's live overlay.
func (m *Manager) Current(role Role) (display.Handle, bool) {
	h, ok := m.live[role]
	return h, ok
}

// Live returns a copy of the role bookkeeping.
func (m *Manager) Live() map[Role]display.Handle {
	out := make(map[Role]display.Handle, len(m.live))
	for role, h := range m.live {
		out[role] = h
	}
	return out
}

// Clear hides every tracked overlay.
func (m *Manager) Clear() error {
	var errs []error
	for _, h := range m.Live() {
		errs = append(errs, m.Hide(h))
	}
	return errors.Join(errs...)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
