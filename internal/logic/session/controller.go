package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/cjeanneret/GoBooth/internal/hw/camera"
	"github.com/cjeanneret/GoBooth/internal/logic/input"
	"github.com/cjeanneret/GoBooth/internal/logic/overlay"
)

// State is a step of the booth state machine.
type State int

const (
	Idle State = iota
	Triggered
	Preparing
	Capturing
	Playback
	Shutdown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Triggered:
		return "triggered"
	case Preparing:
		return "preparing"
	case Capturing:
		return "capturing"
	case Playback:
		return "playback"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Overlay layers. Playback photos go on BaseLayer + total pictures so they
// stack above the processing screen.
const (
	BaseLayer      = 3
	IntroBLayer    = BaseLayer + 1
	CountdownLayer = BaseLayer + 2
)

// Trigger yields input events; *input.Multiplexer implements it.
type Trigger interface {
	Poll() (input.Event, error)
	Reset() error
}

// Assets holds the paths of the static screens.
type Assets struct {
	IntroA     string
	IntroB     string
	GetReady   string
	Flash      string
	Processing string
	AllDone    string
}

// AssetsIn returns the standard asset file names inside dir.
func AssetsIn(dir string) Assets {
	return Assets{
		IntroA:     filepath.Join(dir, "intro_1.png"),
		IntroB:     filepath.Join(dir, "intro_2.png"),
		GetReady:   filepath.Join(dir, "get_ready.png"),
		Flash:      filepath.Join(dir, "white.png"),
		Processing: filepath.Join(dir, "processing.png"),
		AllDone:    filepath.Join(dir, "all_done.png"),
	}
}

// Params tunes a Controller.
type Params struct {
	TotalPics         int
	PrepDelay         time.Duration // "get ready" screen
	CountdownFrom     int
	CountdownStep     time.Duration
	CountdownTextSize int
	FlashDuration     time.Duration
	PlaybackDelay     time.Duration // per photo
	AllDoneDuration   time.Duration
	BlinkSpeed        int // idle polls per blink half-period
	PhotoExt          string
	SingleSession     bool   // stop after one session
	MinFreeBytes      uint64 // warn when the photos dir has less
	Assets            Assets
}

// IdleState is the Idle loop's blink bookkeeping.
type IdleState struct {
	BlinkCounter int
}

// CaptureState tracks the session being shot.
type CaptureState struct {
	Base        string
	PhotoNumber int
}

// Snapshot is a copy of the controller's loop state.
type Snapshot struct {
	State    State
	Idle     IdleState
	Capture  CaptureState
	Sessions int
}

// Controller runs the booth: Idle, Triggered, Preparing, Capturing, Playback
// and back to Idle until an exit request or cancellation.
type Controller struct {
	trigger  Trigger
	overlays *overlay.Manager
	camera   camera.Camera
	namer    *Namer
	params   Params
	observer func(Snapshot)

	state    State
	idle     IdleState
	capture  CaptureState
	sessions int
}

func NewController(t Trigger, o *overlay.Manager, c camera.Camera, n *Namer, p Params) *Controller {
	if p.TotalPics < 1 {
		p.TotalPics = 1
	}
	if p.BlinkSpeed < 1 {
		p.BlinkSpeed = 2
	}
	if p.PhotoExt == "" {
		p.PhotoExt = "jpg"
	}
	return &Controller{
		trigger:  t,
		overlays: o,
		camera:   c,
		namer:    n,
		params:   p,
	}
}

// Observe registers fn to receive a Snapshot after every state transition
// and blink step.
func (c *Controller) Observe(fn func(Snapshot)) {
	c.observer = fn
}

// Snapshot returns the current loop state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:    c.state,
		Idle:     c.idle,
		Capture:  c.capture,
		Sessions: c.sessions,
	}
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer(c.Snapshot())
	}
}

func (c *Controller) setState(s State) {
	debug.State(c.state.String(), s.String())
	c.state = s
	c.notify()
}

// Run drives the booth until the exit button is pressed (nil), a single
// session run completes (nil) or ctx is cancelled (ErrUserInterrupt).
// A failure after ctx is done counts as the interrupt: the signal also
// reaches the camera tools.
func (c *Controller) Run(ctx context.Context) error {
	err := c.run(ctx)
	if err == nil {
		return nil
	}
	if cause := ctx.Err(); cause != nil && !errors.Is(err, cause) {
		debug.Verbose("Interrupted: %v", err)
		err = cause
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.setState(Shutdown)
		return fmt.Errorf("%w: %w", ErrUserInterrupt, err)
	}
	return err
}

func (c *Controller) run(ctx context.Context) error {
	debug.Info("Welcome to the photo booth!")
	if err := c.camera.StartPreview(); err != nil {
		return fmt.Errorf("start preview: %w", err)
	}

	for {
		if err := c.enterIdle(); err != nil {
			return err
		}
		ev, err := c.waitForTrigger(ctx)
		if err != nil {
			return err
		}
		if ev == input.Exit {
			debug.Info("Exit button pressed")
			c.setState(Shutdown)
			return c.overlays.Clear()
		}

		if err := c.runSession(ctx); err != nil {
			return err
		}
		if c.params.SingleSession {
			c.setState(Shutdown)
			return c.overlays.Clear()
		}
		if err := c.trigger.Reset(); err != nil {
			return fmt.Errorf("reset trigger: %w", err)
		}
	}
}

func (c *Controller) enterIdle() error {
	c.idle = IdleState{}
	c.setState(Idle)
	if _, err := c.overlays.Show(overlay.IntroA, c.params.Assets.IntroA, BaseLayer); err != nil {
		return err
	}
	if _, err := c.overlays.Show(overlay.IntroB, c.params.Assets.IntroB, IntroBLayer); err != nil {
		return err
	}
	debug.Live("Press the button to take a photo")
	return nil
}

// waitForTrigger polls until a non-None event, blinking intro B meanwhile.
func (c *Controller) waitForTrigger(ctx context.Context) (input.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return input.None, err
		}
		ev, err := c.trigger.Poll()
		if err != nil {
			return input.None, fmt.Errorf("poll trigger: %w", err)
		}
		if ev != input.None {
			return ev, nil
		}
		if err := c.blink(); err != nil {
			return input.None, err
		}
	}
}

// blink advances the idle counter: intro B turns opaque at BlinkSpeed polls
// and transparent at twice that, where the counter restarts.
func (c *Controller) blink() error {
	c.idle.BlinkCounter++
	switch c.idle.BlinkCounter {
	case c.params.BlinkSpeed:
		if err := c.overlays.SetAlpha(overlay.IntroB, overlay.Opaque); err != nil {
			return err
		}
	case 2 * c.params.BlinkSpeed:
		if err := c.overlays.SetAlpha(overlay.IntroB, overlay.Transparent); err != nil {
			return err
		}
		c.idle.BlinkCounter = 0
	}
	c.notify()
	return nil
}

func (c *Controller) runSession(ctx context.Context) error {
	c.sessions++
	c.capture = CaptureState{Base: c.namer.NewBase(), PhotoNumber: 1}
	c.setState(Triggered)
	debug.Summary(debug.Fmt("Session %s (%d pictures)", filepath.Base(c.capture.Base), c.params.TotalPics))
	debug.Live("Button pressed! Get ready")

	if err := c.overlays.Release(overlay.IntroB); err != nil {
		return err
	}
	if err := c.overlays.Release(overlay.IntroA); err != nil {
		return err
	}
	if c.params.MinFreeBytes > 0 {
		if err := CheckFreeSpace(c.namer.Root(), c.params.MinFreeBytes); err != nil {
			debug.Error(err)
		}
	}

	c.setState(Preparing)
	if err := c.overlays.ShowFor(ctx, c.params.Assets.GetReady, BaseLayer, c.params.PrepDelay); err != nil {
		return err
	}

	for i := 1; i <= c.params.TotalPics; i++ {
		c.capture.PhotoNumber = i
		c.setState(Capturing)
		if err := c.takePhoto(ctx); err != nil {
			return err
		}
	}

	c.setState(Playback)
	return c.playback(ctx)
}

func (c *Controller) takePhoto(ctx context.Context) error {
	base := c.capture.Base
	index, total := c.capture.PhotoNumber, c.params.TotalPics
	if err := EnsureDir(base); err != nil {
		return err
	}

	for n := c.params.CountdownFrom; n > 0; n-- {
		debug.Live("%d...", n)
		if _, err := c.overlays.ShowText(overlay.Countdown, strconv.Itoa(n), c.params.CountdownTextSize, CountdownLayer); err != nil {
			return err
		}
		if err := overlay.Sleep(ctx, c.params.CountdownStep); err != nil {
			_ = c.overlays.Release(overlay.Countdown)
			return err
		}
	}
	if err := c.overlays.Release(overlay.Countdown); err != nil {
		return err
	}

	path := PhotoPath(base, index, total, c.params.PhotoExt)
	if err := c.camera.Capture(path); err != nil {
		return fmt.Errorf("%w: photo %d of %d: %w", ErrCapture, index, total, err)
	}
	if err := c.overlays.ShowFor(ctx, c.params.Assets.Flash, BaseLayer, c.params.FlashDuration); err != nil {
		return err
	}
	debug.Shot(index, total, path)
	return nil
}

// playback shows every photo of the session over the processing screen,
// each one added before the previous is removed.
func (c *Controller) playback(ctx context.Context) error {
	debug.Live("Processing...")
	if _, err := c.overlays.Show(overlay.Playback, c.params.Assets.Processing, BaseLayer); err != nil {
		return err
	}

	layer := BaseLayer + c.params.TotalPics
	for i := 1; i <= c.params.TotalPics; i++ {
		path := PhotoPath(c.capture.Base, i, c.params.TotalPics, c.params.PhotoExt)
		if _, err := c.overlays.Show(overlay.Playback, path, layer); err != nil {
			return err
		}
		if err := overlay.Sleep(ctx, c.params.PlaybackDelay); err != nil {
			return err
		}
	}
	if err := c.overlays.Release(overlay.Playback); err != nil {
		return err
	}

	debug.Info("All done! Photos saved in %s", c.capture.Base)
	return c.overlays.ShowFor(ctx, c.params.Assets.AllDone, BaseLayer, c.params.AllDoneDuration)
}
