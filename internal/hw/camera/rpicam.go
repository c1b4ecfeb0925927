package camera

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/GoBooth/internal/debug"
)

// previewStopTimeout bounds how long StopPreview waits for the preview
// process to exit after an interrupt before killing it.
const previewStopTimeout = 2 * time.Second

// RPiCam drives a Raspberry Pi camera through the rpicam-apps tools:
// a long running preview process (rpicam-hello -t 0) for the live feed and
// one-shot still captures (rpicam-still). The camera can only be opened by
// one process at a time, so Capture pauses the preview around the still.
type RPiCam struct {
	settings   Settings
	previewCmd string
	stillCmd   string

	preview *exec.Cmd
	exited  chan struct{}
	closed  bool
}

// NewRPiCam creates a camera driven by the given preview and still commands.
// rpicam-apps only rotates by 180 degrees; quarter turns are applied to the
// saved stills and the preview stays in sensor orientation.
func NewRPiCam(s Settings, previewCmd, stillCmd string) (*RPiCam, error) {
	switch s.Rotation {
	case 0, 180:
	case 90, 270:
		debug.Info("Camera: rotating stills by %d degrees, preview is not rotated", s.Rotation)
	default:
		return nil, fmt.Errorf("rotation %d is not supported by rpicam (use 0, 90, 180 or 270)", s.Rotation)
	}
	if _, err := exec.LookPath(stillCmd); err != nil {
		return nil, fmt.Errorf("find still command: %w", err)
	}
	if _, err := exec.LookPath(previewCmd); err != nil {
		return nil, fmt.Errorf("find preview command: %w", err)
	}
	return &RPiCam{
		settings:   s,
		previewCmd: previewCmd,
		stillCmd:   stillCmd,
	}, nil
}

func (c *RPiCam) transformArgs() []string {
	var args []string
	if c.settings.Rotation == 180 {
		args = append(args, "--rotation", strconv.Itoa(c.settings.Rotation))
	}
	if c.settings.HFlip {
		args = append(args, "--hflip")
	}
	return args
}

func (c *RPiCam) previewArgs() []string {
	args := []string{
		"-t", "0",
		"-p", fmt.Sprintf("0,0,%d,%d", c.settings.PreviewWidth, c.settings.PreviewHeight),
	}
	return append(args, c.transformArgs()...)
}

func (c *RPiCam) stillArgs(path string) []string {
	args := []string{
		"-n", "--immediate",
		"--width", strconv.Itoa(c.settings.Width),
		"--height", strconv.Itoa(c.settings.Height),
	}
	args = append(args, c.transformArgs()...)
	if enc := encodingFor(path); enc != "" {
		args = append(args, "-e", enc)
	}
	return append(args, "-o", path)
}

// encodingFor maps a file extension to an rpicam-still encoding, "" for the
// default (jpg).
func encodingFor(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return "png"
	case "bmp":
		return "bmp"
	default:
		return ""
	}
}

func (c *RPiCam) StartPreview() error {
	if c.closed {
		return errors.New("camera is closed")
	}
	if c.preview != nil {
		return nil
	}
	cmd := exec.Command(c.previewCmd, c.previewArgs()...)
	debug.Verbose("Camera: starting preview: %s %s", c.previewCmd, strings.Join(c.previewArgs(), " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start preview: %w", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	c.preview = cmd
	c.exited = exited
	return nil
}

func (c *RPiCam) StopPreview() error {
	if c.preview == nil {
		return nil
	}
	cmd, exited := c.preview, c.exited
	c.preview, c.exited = nil, nil

	debug.Verbose("Camera: stopping preview")
	if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("interrupt preview: %w", err)
	}
	select {
	case <-exited:
		return nil
	case <-time.After(previewStopTimeout):
		debug.Live("Camera: preview did not stop in %v, killing it", previewStopTimeout)
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill preview: %w", err)
		}
		<-exited
		return nil
	}
}

func (c *RPiCam) Capture(path string) error {
	if c.closed {
		return errors.New("camera is closed")
	}
	resume := c.preview != nil
	if resume {
		if err := c.StopPreview(); err != nil {
			return err
		}
	}

	args := c.stillArgs(path)
	debug.Verbose("Camera: %s %s", c.stillCmd, strings.Join(args, " "))
	out, err := exec.Command(c.stillCmd, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.stillCmd, err, bytes.TrimSpace(out))
	}
	if quarterTurn(c.settings.Rotation) {
		if err := rotateFile(path, c.settings.Rotation); err != nil {
			return err
		}
	}

	if resume {
		return c.StartPreview()
	}
	return nil
}

func (c *RPiCam) Close() error {
	if c.closed {
		return nil
	}
	err := c.StopPreview()
	c.closed = true
	return err
}
