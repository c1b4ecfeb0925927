package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes bounds the size of a config file accepted by Load.
const MaxConfigFileBytes = 1 << 20

// EnvPrefix is the prefix of environment variables that override the YAML file.
const EnvPrefix = "PHOTOBOOTH_"

// ButtonsConfig holds the GPIO trigger lines (BCM numbering).
type ButtonsConfig struct {
	CapturePin       int `yaml:"capture_pin" env:"CAPTURE_PIN"`               // 'take photo' button
	ExitPin          int `yaml:"exit_pin" env:"EXIT_PIN"`                     // optional 'exit app' button. 0 = not used.
	CaptureTimeoutMs int `yaml:"capture_timeout_ms" env:"CAPTURE_TIMEOUT_MS"` // edge wait per poll on the capture pin
	ExitTimeoutMs    int `yaml:"exit_timeout_ms" env:"EXIT_TIMEOUT_MS"`       // edge wait per poll on the exit pin
}

// SerialConfig describes the external trigger line. Empty Device disables it.
type SerialConfig struct {
	Device string `yaml:"device" env:"DEVICE"` // e.g., "/dev/ttyUSB0"
	Baud   int    `yaml:"baud" env:"BAUD"`
}

// CameraConfig describes how to drive the camera.
// Type selects a concrete implementation ("rpicam" or "mock").
type CameraConfig struct {
	Type          string `yaml:"type" env:"TYPE"`
	Rotation      int    `yaml:"rotation" env:"ROTATION"` // 0, 90, 180 or 270
	HFlip         bool   `yaml:"hflip" env:"HFLIP"`
	PhotoWidth    int    `yaml:"photo_width" env:"PHOTO_WIDTH"`
	PhotoHeight   int    `yaml:"photo_height" env:"PHOTO_HEIGHT"`
	PreviewWidth  int    `yaml:"preview_width" env:"PREVIEW_WIDTH"`
	PreviewHeight int    `yaml:"preview_height" env:"PREVIEW_HEIGHT"`
	PreviewCmd    string `yaml:"preview_cmd" env:"PREVIEW_CMD"` // e.g., "rpicam-hello"
	StillCmd      string `yaml:"still_cmd" env:"STILL_CMD"`     // e.g., "rpicam-still"
}

// DisplayConfig describes where overlays are composited.
// Type is "framebuffer" (real screen) or "memory" (headless/dev).
type DisplayConfig struct {
	Type   string `yaml:"type" env:"TYPE"`
	Device string `yaml:"device" env:"DEVICE"` // e.g., "/dev/fb0"
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`
}

// BoothConfig contains the photo session parameters.
type BoothConfig struct {
	TotalPics         int    `yaml:"total_pics" env:"TOTAL_PICS"`                   // number of pics per session
	PrepDelayMs       int    `yaml:"prep_delay_ms" env:"PREP_DELAY_MS"`             // 'get ready' screen duration
	CountdownFrom     int    `yaml:"countdown_from" env:"COUNTDOWN_FROM"`           // first countdown digit
	CountdownStepMs   int    `yaml:"countdown_step_ms" env:"COUNTDOWN_STEP_MS"`     // time per countdown digit
	CountdownTextSize int    `yaml:"countdown_text_size" env:"COUNTDOWN_TEXT_SIZE"` // countdown glyph height in pixels
	BlinkSpeed        int    `yaml:"blink_speed" env:"BLINK_SPEED"`                 // idle polls per intro blink phase
	FlashMs           int    `yaml:"flash_ms" env:"FLASH_MS"`                       // white flash after each capture
	PlaybackMs        int    `yaml:"playback_ms" env:"PLAYBACK_MS"`                 // time per photo during playback
	AllDoneMs         int    `yaml:"all_done_ms" env:"ALL_DONE_MS"`                 // 'all done' screen duration
	PhotosDir         string `yaml:"photos_dir" env:"PHOTOS_DIR"`                   // relative to the executable unless absolute
	AssetsDir         string `yaml:"assets_dir" env:"ASSETS_DIR"`                   // relative to the executable unless absolute
	PhotoExt          string `yaml:"photo_ext" env:"PHOTO_EXT"`
	MinFreeMB         int    `yaml:"min_free_mb" env:"MIN_FREE_MB"` // refuse to start below this. 0 = no check.
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level" env:"DEBUG_LEVEL"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio" env:"MOCK_GPIO"`     // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Buttons  ButtonsConfig  `yaml:"buttons" envPrefix:"BUTTONS_"`
	Serial   SerialConfig   `yaml:"serial" envPrefix:"SERIAL_"`
	Camera   CameraConfig   `yaml:"camera" envPrefix:"CAMERA_"`
	Display  DisplayConfig  `yaml:"display" envPrefix:"DISPLAY_"`
	Booth    BoothConfig    `yaml:"booth" envPrefix:"BOOTH_"`
	Defaults DefaultsConfig `yaml:"defaults" envPrefix:"DEFAULTS_"`
}

// ValidateConfigPath checks that path names a .yaml file directly inside a
// "configs" directory and contains no parent-directory elements.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file, applies PHOTOBOOTH_* environment overrides and
// returns the validated configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), MaxConfigFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	// Basic validation
	if c.Camera.Type == "" {
		return fmt.Errorf("camera.type is required")
	}
	switch c.Camera.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("camera.rotation must be 0, 90, 180 or 270, got %d", c.Camera.Rotation)
	}
	if c.Buttons.CapturePin < 0 || c.Buttons.ExitPin < 0 {
		return fmt.Errorf("button pins must be >= 0")
	}
	if c.Buttons.CapturePin == 0 {
		c.Buttons.CapturePin = 21
	}
	if c.Buttons.ExitPin != 0 && c.Buttons.ExitPin == c.Buttons.CapturePin {
		return fmt.Errorf("buttons.exit_pin must differ from capture_pin (%d)", c.Buttons.CapturePin)
	}
	if c.Buttons.CaptureTimeoutMs <= 0 {
		c.Buttons.CaptureTimeoutMs = 400
	}
	if c.Buttons.ExitTimeoutMs <= 0 {
		c.Buttons.ExitTimeoutMs = 100
	}

	if c.Serial.Device != "" && c.Serial.Baud <= 0 {
		c.Serial.Baud = 9600
	}

	// Camera resolution defaults
	if c.Camera.PhotoWidth <= 0 || c.Camera.PhotoHeight <= 0 {
		c.Camera.PhotoWidth, c.Camera.PhotoHeight = 1920, 1152
	}
	if c.Camera.PreviewCmd == "" {
		c.Camera.PreviewCmd = "rpicam-hello"
	}
	if c.Camera.StillCmd == "" {
		c.Camera.StillCmd = "rpicam-still"
	}

	if c.Display.Type == "" {
		c.Display.Type = "framebuffer"
	}
	if c.Display.Device == "" {
		c.Display.Device = "/dev/fb0"
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		c.Display.Width, c.Display.Height = 800, 480
	}
	if c.Camera.PreviewWidth <= 0 || c.Camera.PreviewHeight <= 0 {
		c.Camera.PreviewWidth, c.Camera.PreviewHeight = c.Display.Width, c.Display.Height
	}

	if c.Booth.TotalPics < 0 {
		return fmt.Errorf("booth.total_pics must be > 0, got %d", c.Booth.TotalPics)
	}
	if c.Booth.TotalPics == 0 {
		c.Booth.TotalPics = 4
	}
	if c.Booth.PrepDelayMs <= 0 {
		c.Booth.PrepDelayMs = 10000
	}
	if c.Booth.CountdownFrom <= 0 {
		c.Booth.CountdownFrom = 3
	}
	if c.Booth.CountdownStepMs <= 0 {
		c.Booth.CountdownStepMs = 1000
	}
	if c.Booth.CountdownTextSize <= 0 {
		c.Booth.CountdownTextSize = 160
	}
	if c.Booth.BlinkSpeed <= 0 {
		c.Booth.BlinkSpeed = 2
	}
	if c.Booth.FlashMs <= 0 {
		c.Booth.FlashMs = 100
	}
	if c.Booth.PlaybackMs <= 0 {
		c.Booth.PlaybackMs = 1000
	}
	if c.Booth.AllDoneMs <= 0 {
		c.Booth.AllDoneMs = 20000
	}
	if c.Booth.PhotosDir == "" {
		c.Booth.PhotosDir = "photos"
	}
	if c.Booth.AssetsDir == "" {
		c.Booth.AssetsDir = "assets"
	}
	if c.Booth.PhotoExt == "" {
		c.Booth.PhotoExt = "jpg"
	}
	c.Booth.PhotoExt = strings.TrimPrefix(c.Booth.PhotoExt, ".")
	if strings.ContainsAny(c.Booth.PhotoExt, `/\ :`) {
		return fmt.Errorf("booth.photo_ext %q is not a valid file extension", c.Booth.PhotoExt)
	}
	if c.Booth.MinFreeMB < 0 {
		return fmt.Errorf("booth.min_free_mb must be >= 0, got %d", c.Booth.MinFreeMB)
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// CaptureTimeout returns the per-poll edge wait on the capture button.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Buttons.CaptureTimeoutMs) * time.Millisecond
}

// ExitTimeout returns the per-poll edge wait on the exit button.
func (c *Config) ExitTimeout() time.Duration {
	return time.Duration(c.Buttons.ExitTimeoutMs) * time.Millisecond
}

// PrepDelay returns how long the 'get ready' screen is shown.
func (c *Config) PrepDelay() time.Duration {
	return time.Duration(c.Booth.PrepDelayMs) * time.Millisecond
}

// CountdownStep returns the time each countdown digit stays on screen.
func (c *Config) CountdownStep() time.Duration {
	return time.Duration(c.Booth.CountdownStepMs) * time.Millisecond
}

// FlashDuration returns the white flash duration after a capture.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.Booth.FlashMs) * time.Millisecond
}

// PlaybackDelay returns the time each photo is shown during playback.
func (c *Config) PlaybackDelay() time.Duration {
	return time.Duration(c.Booth.PlaybackMs) * time.Millisecond
}

// AllDoneDuration returns how long the final screen is shown.
func (c *Config) AllDoneDuration() time.Duration {
	return time.Duration(c.Booth.AllDoneMs) * time.Millisecond
}

// MinFreeBytes returns the free disk space required under the photos dir.
func (c *Config) MinFreeBytes() uint64 {
	return uint64(c.Booth.MinFreeMB) * 1024 * 1024
}

// ApplyFastTest shortens a session for quick end-to-end checks:
// one photo and a one second preparation delay.
func (c *Config) ApplyFastTest() {
	c.Booth.TotalPics = 1
	c.Booth.PrepDelayMs = 1000
}
