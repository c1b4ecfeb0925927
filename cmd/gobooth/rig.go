package main

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/cjeanneret/GoBooth/internal/config"
	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/cjeanneret/GoBooth/internal/hw/camera"
	"github.com/cjeanneret/GoBooth/internal/hw/display"
	"github.com/cjeanneret/GoBooth/internal/hw/gpio"
	"github.com/cjeanneret/GoBooth/internal/hw/serial"
)

type closer interface {
	Close() error
}

// rig owns every hardware handle of the booth. release closes them once,
// whichever way the program ends.
type rig struct {
	gpio    gpio.Driver
	line    serial.Line // nil without a serial trigger
	camera  camera.Camera
	surface display.Surface

	once sync.Once
	err  error
}

// newRig brings up GPIO, serial, camera and display in that order. On
// failure the parts already opened are released before returning.
func newRig(cfg *config.Config) (*rig, error) {
	r := &rig{}
	ok := false
	defer func() {
		if !ok {
			r.release()
		}
	}()

	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	g, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, fmt.Errorf("init GPIO: %w", err)
	}
	r.gpio = g

	if cfg.Serial.Device != "" {
		debug.Step(2, "Opening serial trigger")
		port, err := serial.Open(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			return nil, fmt.Errorf("init serial: %w", err)
		}
		r.line = port
		debug.Value("Serial device", cfg.Serial.Device)
		debug.Value("Serial baud", cfg.Serial.Baud)
	}

	debug.Step(3, "Initializing camera")
	cam, err := newCameraFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init camera: %w", err)
	}
	r.camera = cam
	debug.PrintStruct("Camera config", cfg.Camera)

	debug.Step(4, "Initializing display")
	surface, err := newDisplayFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	r.surface = surface
	debug.PrintStruct("Display config", cfg.Display)

	ok = true
	return r, nil
}

// release closes camera, display, serial line and GPIO. Later calls return
// the first call's result without touching the hardware again.
func (r *rig) release() error {
	r.once.Do(func() {
		debug.Section("Releasing hardware")
		var errs []error
		for _, part := range []struct {
			name string
			c    closer
		}{
			{"camera", r.camera},
			{"display", r.surface},
			{"serial line", r.line},
			{"GPIO driver", r.gpio},
		} {
			if part.c == nil {
				continue
			}
			if err := part.c.Close(); err != nil {
				log.Printf("closing %s failed: %v", part.name, err)
				errs = append(errs, fmt.Errorf("close %s: %w", part.name, err))
			}
		}
		r.err = errors.Join(errs...)
	})
	return r.err
}

// newCameraFromConfig selects a camera implementation based on configuration.
func newCameraFromConfig(cfg *config.Config) (camera.Camera, error) {
	settings := camera.Settings{
		Rotation:      cfg.Camera.Rotation,
		HFlip:         cfg.Camera.HFlip,
		Width:         cfg.Camera.PhotoWidth,
		Height:        cfg.Camera.PhotoHeight,
		PreviewWidth:  cfg.Camera.PreviewWidth,
		PreviewHeight: cfg.Camera.PreviewHeight,
	}
	switch cfg.Camera.Type {
	case "rpicam":
		return camera.NewRPiCam(settings, cfg.Camera.PreviewCmd, cfg.Camera.StillCmd)
	case "mock":
		return camera.NewMock(settings), nil
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}

// newDisplayFromConfig selects where overlays are drawn.
func newDisplayFromConfig(cfg *config.Config) (display.Surface, error) {
	switch cfg.Display.Type {
	case "framebuffer":
		return display.OpenFramebuffer(cfg.Display.Device, cfg.Display.Width, cfg.Display.Height)
	case "memory":
		return display.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported display type: %s", cfg.Display.Type)
	}
}
