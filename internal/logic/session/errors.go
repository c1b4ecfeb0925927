package session

import "errors"

// Error kinds. Callers match them with errors.Is; the wrapped error carries
// the detail.
var (
	// ErrHardwareInit marks camera, GPIO, serial or display setup failures.
	ErrHardwareInit = errors.New("hardware init failed")
	// ErrDirectoryCreate marks a session directory that could not be created.
	ErrDirectoryCreate = errors.New("create session directory")
	// ErrCapture marks a camera failure during a still capture.
	ErrCapture = errors.New("capture failed")
	// ErrUserInterrupt marks an explicit request to stop (signal).
	ErrUserInterrupt = errors.New("user interrupt")
	// ErrLowDiskSpace marks a photos directory without enough free space.
	ErrLowDiskSpace = errors.New("not enough free disk space")
)
