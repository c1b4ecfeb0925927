package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	// Create a real configs/ directory so filepath.Abs resolves correctly.
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "default.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateConfigPath(path); err != nil {
		t.Errorf("expected valid path, got error: %v", err)
	}
}

func TestValidateConfigPath_RelativeDefault(t *testing.T) {
	if err := ValidateConfigPath(filepath.Join("configs", "default.yaml")); err != nil {
		t.Errorf("default relative path should be valid, got: %v", err)
	}
}

func TestValidateConfigPath_PathTraversal(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"configs/../../../etc/shadow",
		"../configs/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for traversal path %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_WrongExtension(t *testing.T) {
	cases := []string{
		"configs/default.json",
		"configs/default.yml",
		"configs/default.txt",
		"configs/default",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for extension in %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_NotInConfigsDir(t *testing.T) {
	cases := []string{
		"other/default.yaml",
		"/tmp/default.yaml",
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err == nil {
			t.Errorf("expected error for path outside configs/ %q, got nil", path)
		}
	}
}

func TestValidateConfigPath_EmptyPath(t *testing.T) {
	if err := ValidateConfigPath(""); err == nil {
		t.Error("expected error for empty path, got nil")
	}
}

func TestValidateConfigPath_SpecialChars(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"con fig.yaml", "café.yaml"} {
		if err := ValidateConfigPath(filepath.Join(cfgDir, name)); err != nil {
			t.Errorf("unexpected error for %q: %v", name, err)
		}
	}
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
buttons:
  capture_pin: 21
  exit_pin: 13
  capture_timeout_ms: 400
  exit_timeout_ms: 100
serial:
  device: "/dev/ttyUSB0"
  baud: 9600
camera:
  type: "rpicam"
  rotation: 270
  hflip: false
  photo_width: 1920
  photo_height: 1152
display:
  type: "framebuffer"
  device: "/dev/fb0"
  width: 800
  height: 480
booth:
  total_pics: 4
  prep_delay_ms: 10000
  blink_speed: 2
  photos_dir: "photos"
  assets_dir: "assets"
defaults:
  debug_level: 0
  mock_gpio: true
`

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Camera.Type != "rpicam" {
		t.Errorf("camera.type = %q, want %q", cfg.Camera.Type, "rpicam")
	}
	if cfg.Camera.Rotation != 270 {
		t.Errorf("camera.rotation = %d, want 270", cfg.Camera.Rotation)
	}
	if cfg.Buttons.ExitPin != 13 {
		t.Errorf("buttons.exit_pin = %d, want 13", cfg.Buttons.ExitPin)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" || cfg.Serial.Baud != 9600 {
		t.Errorf("serial = %+v, want /dev/ttyUSB0@9600", cfg.Serial)
	}
	if cfg.Booth.TotalPics != 4 {
		t.Errorf("booth.total_pics = %d, want 4", cfg.Booth.TotalPics)
	}
	if cfg.Camera.PreviewWidth != 800 || cfg.Camera.PreviewHeight != 480 {
		t.Errorf("preview = %dx%d, want display size 800x480", cfg.Camera.PreviewWidth, cfg.Camera.PreviewHeight)
	}
	if !cfg.Defaults.MockGPIO {
		t.Error("defaults.mock_gpio should be true")
	}
}

func TestLoad_MissingCameraType(t *testing.T) {
	path := writeConfig(t, `
booth:
  total_pics: 2
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing camera.type, got nil")
	}
}

func TestLoad_InvalidRotation(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
  rotation: 45
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for rotation 45, got nil")
	}
}

func TestLoad_NegativeTotalPics(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
booth:
  total_pics: -1
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative total_pics, got nil")
	}
}

func TestLoad_ExitPinSameAsCapture(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
buttons:
  capture_pin: 21
  exit_pin: 21
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for exit_pin == capture_pin, got nil")
	}
}

func TestLoad_BadPhotoExt(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
booth:
  photo_ext: "a/b"
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for photo_ext with separator, got nil")
	}
}

func TestLoad_DebugLevelOutOfRange(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
defaults:
  debug_level: 9
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for debug_level 9, got nil")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct {
		name      string
		got, want int
	}{
		{"capture_pin", cfg.Buttons.CapturePin, 21},
		{"exit_pin", cfg.Buttons.ExitPin, 0},
		{"capture_timeout_ms", cfg.Buttons.CaptureTimeoutMs, 400},
		{"exit_timeout_ms", cfg.Buttons.ExitTimeoutMs, 100},
		{"photo_width", cfg.Camera.PhotoWidth, 1920},
		{"photo_height", cfg.Camera.PhotoHeight, 1152},
		{"display.width", cfg.Display.Width, 800},
		{"display.height", cfg.Display.Height, 480},
		{"total_pics", cfg.Booth.TotalPics, 4},
		{"prep_delay_ms", cfg.Booth.PrepDelayMs, 10000},
		{"countdown_from", cfg.Booth.CountdownFrom, 3},
		{"countdown_step_ms", cfg.Booth.CountdownStepMs, 1000},
		{"countdown_text_size", cfg.Booth.CountdownTextSize, 160},
		{"blink_speed", cfg.Booth.BlinkSpeed, 2},
		{"flash_ms", cfg.Booth.FlashMs, 100},
		{"playback_ms", cfg.Booth.PlaybackMs, 1000},
		{"all_done_ms", cfg.Booth.AllDoneMs, 20000},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s default = %d, want %d", c.name, c.got, c.want)
		}
	}
	if cfg.Serial.Device != "" || cfg.Serial.Baud != 0 {
		t.Errorf("serial should stay disabled by default, got %+v", cfg.Serial)
	}
	if cfg.Display.Type != "framebuffer" || cfg.Display.Device != "/dev/fb0" {
		t.Errorf("display defaults = %+v", cfg.Display)
	}
	if cfg.Booth.PhotosDir != "photos" || cfg.Booth.AssetsDir != "assets" || cfg.Booth.PhotoExt != "jpg" {
		t.Errorf("booth path defaults = %+v", cfg.Booth)
	}
	if cfg.Camera.StillCmd != "rpicam-still" || cfg.Camera.PreviewCmd != "rpicam-hello" {
		t.Errorf("camera command defaults = %q / %q", cfg.Camera.StillCmd, cfg.Camera.PreviewCmd)
	}
}

func TestLoad_PhotoExtLeadingDotTrimmed(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
booth:
  photo_ext: ".png"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Booth.PhotoExt != "png" {
		t.Errorf("photo_ext = %q, want \"png\"", cfg.Booth.PhotoExt)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PHOTOBOOTH_BOOTH_TOTAL_PICS", "2")
	t.Setenv("PHOTOBOOTH_CAMERA_TYPE", "mock")
	t.Setenv("PHOTOBOOTH_DEFAULTS_MOCK_GPIO", "true")
	t.Setenv("PHOTOBOOTH_SERIAL_DEVICE", "/dev/ttyACM0")

	path := writeConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Booth.TotalPics != 2 {
		t.Errorf("total_pics = %d, want env override 2", cfg.Booth.TotalPics)
	}
	if cfg.Camera.Type != "mock" {
		t.Errorf("camera.type = %q, want env override \"mock\"", cfg.Camera.Type)
	}
	if cfg.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("serial.device = %q, want env override", cfg.Serial.Device)
	}
	// Untouched values keep the YAML content.
	if cfg.Buttons.ExitPin != 13 {
		t.Errorf("exit_pin = %d, want 13 from YAML", cfg.Buttons.ExitPin)
	}
}

func TestLoad_EnvOverrideInvalid(t *testing.T) {
	t.Setenv("PHOTOBOOTH_BOOTH_TOTAL_PICS", "many")
	path := writeConfig(t, validYAML)
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric env override, got nil")
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "big.yaml")
	data := []byte(strings.Repeat("#", MaxConfigFileBytes+1))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for oversized config file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{{{{invalid yaml!!!!")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	if _, err := Load(path); err == nil {
		t.Error("expected error for empty config (camera.type missing), got nil")
	}
}

func TestLoad_UnknownFields(t *testing.T) {
	path := writeConfig(t, `
camera:
  type: "mock"
unknown_section:
  foo: bar
`)
	if _, err := Load(path); err != nil {
		t.Errorf("unknown fields should be ignored, got error: %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "configs", "nonexistent.yaml")); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

// ---------- Helper methods ----------

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Buttons: ButtonsConfig{CaptureTimeoutMs: 400, ExitTimeoutMs: 100},
		Booth: BoothConfig{
			PrepDelayMs:     10000,
			CountdownStepMs: 1000,
			FlashMs:         100,
			PlaybackMs:      1000,
			AllDoneMs:       20000,
		},
	}
	cases := []struct {
		name      string
		got, want time.Duration
	}{
		{"CaptureTimeout", cfg.CaptureTimeout(), 400 * time.Millisecond},
		{"ExitTimeout", cfg.ExitTimeout(), 100 * time.Millisecond},
		{"PrepDelay", cfg.PrepDelay(), 10 * time.Second},
		{"CountdownStep", cfg.CountdownStep(), time.Second},
		{"FlashDuration", cfg.FlashDuration(), 100 * time.Millisecond},
		{"PlaybackDelay", cfg.PlaybackDelay(), time.Second},
		{"AllDoneDuration", cfg.AllDoneDuration(), 20 * time.Second},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s() = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestConfig_MinFreeBytes(t *testing.T) {
	cfg := &Config{Booth: BoothConfig{MinFreeMB: 2}}
	if got := cfg.MinFreeBytes(); got != 2*1024*1024 {
		t.Errorf("MinFreeBytes() = %d, want %d", got, 2*1024*1024)
	}
}

func TestConfig_ApplyFastTest(t *testing.T) {
	cfg := &Config{Booth: BoothConfig{TotalPics: 4, PrepDelayMs: 10000}}
	cfg.ApplyFastTest()
	if cfg.Booth.TotalPics != 1 {
		t.Errorf("total_pics = %d, want 1", cfg.Booth.TotalPics)
	}
	if cfg.PrepDelay() != time.Second {
		t.Errorf("PrepDelay() = %v, want 1s", cfg.PrepDelay())
	}
}
