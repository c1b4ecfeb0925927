package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cjeanneret/GoBooth/internal/config"
	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/cjeanneret/GoBooth/internal/logic/input"
	"github.com/cjeanneret/GoBooth/internal/logic/overlay"
	"github.com/cjeanneret/GoBooth/internal/logic/session"
)

// options are the test switches given on the command line.
type options struct {
	fast      bool // one photo, short get-ready screen, one session
	autoPress bool // press the button once and stop after the session
	mock      bool // no booth hardware
}

func main() {
	// CLI flags
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	fast := flag.Bool("fast", false, "fast test mode: a single one-photo session with a 1s get-ready screen")
	autoPress := flag.Bool("autopress", false, "trigger a session automatically and exit when it ends")
	mock := flag.Bool("mock", false, "run without booth hardware (mock GPIO and camera, in-memory display)")
	flag.Parse()

	os.Exit(run(*cfgPath, options{fast: *fast, autoPress: *autoPress, mock: *mock}))
}

// run loads the configuration and drives the booth. It returns the process
// exit code so deferred teardown always runs before os.Exit.
func run(cfgPath string, opts options) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(cfgPath); err != nil {
		log.Printf("invalid config path: %v", err)
		return 1
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("load config failed: %v", err)
		return 1
	}
	applyOptions(cfg, opts)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.Value("Fast mode", opts.fast)
	debug.Value("Auto press", opts.autoPress)

	return exitCode(boot(ctx, cfg, opts))
}

// applyOptions folds the command line switches into cfg.
func applyOptions(cfg *config.Config, opts options) {
	if opts.fast {
		cfg.ApplyFastTest()
	}
	if opts.mock {
		cfg.Defaults.MockGPIO = true
		cfg.Camera.Type = "mock"
		cfg.Display.Type = "memory"
		cfg.Serial.Device = ""
	}
}

// boot checks the photos directory, brings the hardware up and runs the
// session controller until it stops.
func boot(ctx context.Context, cfg *config.Config, opts options) error {
	photosDir, err := session.ResolveRoot(cfg.Booth.PhotosDir)
	if err != nil {
		return err
	}
	assetsDir, err := session.ResolveRoot(cfg.Booth.AssetsDir)
	if err != nil {
		return err
	}
	debug.Value("Photos dir", photosDir)
	debug.Value("Assets dir", assetsDir)
	if err := session.EnsureDir(photosDir); err != nil {
		return err
	}
	if err := session.CheckFreeSpace(photosDir, cfg.MinFreeBytes()); err != nil {
		return err
	}

	r, err := newRig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrHardwareInit, err)
	}
	defer r.release()

	trigger, err := input.NewMultiplexer(r.gpio, r.line, inputConfig(cfg, opts))
	if err != nil {
		return fmt.Errorf("%w: %w", session.ErrHardwareInit, err)
	}
	debug.Value("Max poll block", trigger.MaxBlock())

	debug.Step(5, "Creating session controller")
	ctrl := session.NewController(
		trigger,
		overlay.NewManager(r.surface),
		r.camera,
		session.NewNamer(photosDir),
		sessionParams(cfg, assetsDir, opts),
	)

	debug.Section("Starting Photo Booth")
	return ctrl.Run(ctx)
}

func inputConfig(cfg *config.Config, opts options) input.Config {
	return input.Config{
		CapturePin:     cfg.Buttons.CapturePin,
		ExitPin:        cfg.Buttons.ExitPin,
		CaptureTimeout: cfg.CaptureTimeout(),
		ExitTimeout:    cfg.ExitTimeout(),
		AutoPress:      opts.autoPress,
	}
}

func sessionParams(cfg *config.Config, assetsDir string, opts options) session.Params {
	return session.Params{
		TotalPics:         cfg.Booth.TotalPics,
		PrepDelay:         cfg.PrepDelay(),
		CountdownFrom:     cfg.Booth.CountdownFrom,
		CountdownStep:     cfg.CountdownStep(),
		CountdownTextSize: cfg.Booth.CountdownTextSize,
		FlashDuration:     cfg.FlashDuration(),
		PlaybackDelay:     cfg.PlaybackDelay(),
		AllDoneDuration:   cfg.AllDoneDuration(),
		BlinkSpeed:        cfg.Booth.BlinkSpeed,
		PhotoExt:          cfg.Booth.PhotoExt,
		SingleSession:     opts.fast || opts.autoPress,
		MinFreeBytes:      cfg.MinFreeBytes(),
		Assets:            session.AssetsIn(assetsDir),
	}
}

// exitCode maps the controller result to the process exit status. A user
// interrupt is a normal way to stop the booth.
func exitCode(err error) int {
	if err == nil || errors.Is(err, session.ErrUserInterrupt) {
		log.Println("Goodbye!")
		return 0
	}
	log.Printf("unexpected error: %v", err)
	return 1
}
