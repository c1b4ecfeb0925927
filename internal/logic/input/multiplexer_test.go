package input

import (
	"errors"
	"testing"
	"time"

	"github.com/cjeanneret/GoBooth/internal/hw/gpio"
	"github.com/cjeanneret/GoBooth/internal/hw/serial"
)

// scriptedDriver reports edges from a per-pin script, one entry per wait.
type scriptedDriver struct {
	setup   map[int]gpio.Edge
	pulls   map[int]gpio.Pull
	edges   map[int][]bool
	waits   []int
	timeout map[int]time.Duration
	err     error
}

func newScriptedDriver() *scriptedDriver {
	return &scriptedDriver{
		setup:   make(map[int]gpio.Edge),
		pulls:   make(map[int]gpio.Pull),
		edges:   make(map[int][]bool),
		timeout: make(map[int]time.Duration),
	}
}

func (d *scriptedDriver) SetupInput(pin int, pull gpio.Pull, edge gpio.Edge) error {
	if d.err != nil {
		return d.err
	}
	d.setup[pin] = edge
	d.pulls[pin] = pull
	return nil
}

func (d *scriptedDriver) WaitForEdge(pin int, timeout time.Duration) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.waits = append(d.waits, pin)
	d.timeout[pin] = timeout
	script := d.edges[pin]
	if len(script) == 0 {
		return false, nil
	}
	d.edges[pin] = script[1:]
	return script[0], nil
}

func (d *scriptedDriver) Close() error { return nil }

func testConfig() Config {
	return Config{
		CapturePin:     21,
		ExitPin:        13,
		CaptureTimeout: 400 * time.Millisecond,
		ExitTimeout:    100 * time.Millisecond,
	}
}

func TestNewMultiplexer_ConfiguresPullUpFallingEdge(t *testing.T) {
	drv := newScriptedDriver()
	if _, err := NewMultiplexer(drv, nil, testConfig()); err != nil {
		t.Fatal(err)
	}
	for _, pin := range []int{21, 13} {
		if drv.setup[pin] != gpio.FallingEdge || drv.pulls[pin] != gpio.PullUp {
			t.Errorf("pin %d: edge=%v pull=%v, want falling/pull-up", pin, drv.setup[pin], drv.pulls[pin])
		}
	}
}

func TestNewMultiplexer_NoExitPin(t *testing.T) {
	drv := newScriptedDriver()
	cfg := testConfig()
	cfg.ExitPin = 0
	m, err := NewMultiplexer(drv, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := drv.setup[0]; ok {
		t.Error("pin 0 should not be set up")
	}
	if _, err := m.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(drv.waits) != 1 || drv.waits[0] != 21 {
		t.Errorf("waits = %v, want only the capture pin", drv.waits)
	}
	if m.MaxBlock() != 400*time.Millisecond {
		t.Errorf("MaxBlock() = %v, want 400ms", m.MaxBlock())
	}
}

func TestNewMultiplexer_SetupError(t *testing.T) {
	drv := newScriptedDriver()
	drv.err = errors.New("gpio busy")
	if _, err := NewMultiplexer(drv, nil, testConfig()); err == nil {
		t.Error("expected setup error")
	}
}

func TestPoll_Events(t *testing.T) {
	cases := []struct {
		name      string
		capture   bool
		exit      bool
		serial    int
		autoPress bool
		want      Event
	}{
		{"nothing", false, false, 0, false, None},
		{"capture_button", true, false, 0, false, Capture},
		{"exit_button", false, true, 0, false, Exit},
		{"exit_wins_over_capture", true, true, 0, false, Exit},
		{"exit_wins_over_serial", false, true, 5, false, Exit},
		{"serial_bytes", false, false, 1, false, Capture},
		{"auto_press", false, false, 0, true, Capture},
		{"exit_wins_over_auto_press", false, true, 0, true, Exit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			drv := newScriptedDriver()
			drv.edges[21] = []bool{tc.capture}
			drv.edges[13] = []bool{tc.exit}
			line := &serial.Mock{Pending: tc.serial}
			cfg := testConfig()
			cfg.AutoPress = tc.autoPress

			m, err := NewMultiplexer(drv, line, cfg)
			if err != nil {
				t.Fatal(err)
			}
			got, err := m.Poll()
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if got != tc.want {
				t.Errorf("Poll() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPoll_WaitOrderAndTimeouts(t *testing.T) {
	drv := newScriptedDriver()
	m, err := NewMultiplexer(drv, nil, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Poll(); err != nil {
		t.Fatal(err)
	}
	if len(drv.waits) != 2 || drv.waits[0] != 21 || drv.waits[1] != 13 {
		t.Errorf("waits = %v, want [21 13]", drv.waits)
	}
	if drv.timeout[21] != 400*time.Millisecond || drv.timeout[13] != 100*time.Millisecond {
		t.Errorf("timeouts = %v", drv.timeout)
	}
	if m.MaxBlock() != 500*time.Millisecond {
		t.Errorf("MaxBlock() = %v, want 500ms", m.MaxBlock())
	}
}

func TestPoll_SerialDrainedOnPress(t *testing.T) {
	drv := newScriptedDriver()
	line := &serial.Mock{Pending: 4}
	m, err := NewMultiplexer(drv, line, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if ev, _ := m.Poll(); ev != Capture {
		t.Fatalf("first poll = %v, want capture", ev)
	}
	if line.Pending != 0 || line.Discards != 1 {
		t.Errorf("serial not drained: pending=%d discards=%d", line.Pending, line.Discards)
	}
	if ev, _ := m.Poll(); ev != None {
		t.Errorf("second poll = %v, want none (stale bytes must not re-trigger)", ev)
	}
}

func TestPoll_SerialUntouchedOnExit(t *testing.T) {
	drv := newScriptedDriver()
	drv.edges[13] = []bool{true}
	line := &serial.Mock{Pending: 2}
	m, _ := NewMultiplexer(drv, line, testConfig())

	if ev, _ := m.Poll(); ev != Exit {
		t.Fatalf("Poll() = %v, want exit", ev)
	}
	if line.Discards != 0 {
		t.Error("exit should return before the serial line is checked")
	}
}

type failingLine struct{ serial.Mock }

func (f *failingLine) Buffered() (int, error) { return 0, errors.New("ioctl failed") }

func TestPoll_Errors(t *testing.T) {
	drv := newScriptedDriver()
	m, _ := NewMultiplexer(drv, &failingLine{}, testConfig())
	if _, err := m.Poll(); err == nil {
		t.Error("expected serial error")
	}

	drv = newScriptedDriver()
	m, _ = NewMultiplexer(drv, nil, testConfig())
	drv.err = errors.New("edge wait failed")
	if ev, err := m.Poll(); err == nil || ev != None {
		t.Errorf("Poll() = %v, %v; want None and an error", ev, err)
	}
}

func TestReset(t *testing.T) {
	drv := newScriptedDriver()
	line := &serial.Mock{Pending: 9}
	m, _ := NewMultiplexer(drv, line, testConfig())
	if err := m.Reset(); err != nil {
		t.Fatal(err)
	}
	if line.Pending != 0 {
		t.Errorf("Pending = %d after Reset, want 0", line.Pending)
	}

	noLine, _ := NewMultiplexer(newScriptedDriver(), nil, testConfig())
	if err := noLine.Reset(); err != nil {
		t.Errorf("Reset without serial line: %v", err)
	}
}

func TestEvent_String(t *testing.T) {
	for ev, want := range map[Event]string{None: "none", Capture: "capture", Exit: "exit", Event(9): "event(9)"} {
		if got := ev.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(ev), got, want)
		}
	}
}
