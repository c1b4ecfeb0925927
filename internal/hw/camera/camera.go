package camera

// Settings is the fixed configuration surface of the camera.
type Settings struct {
	Rotation      int  // 0, 90, 180 or 270 degrees
	HFlip         bool // mirror the image horizontally
	Width         int  // still capture resolution
	Height        int
	PreviewWidth  int // live preview window
	PreviewHeight int
}

// Camera is the high-level interface used by the rest of the application.
// It represents an abstract "camera" that shows a live preview on screen
// and saves stills to files, regardless of how it's driven.
type Camera interface {
	// StartPreview shows the live feed. Calling it while running is a no-op.
	StartPreview() error
	// Capture saves a still to path. The file format follows the extension.
	Capture(path string) error
	// StopPreview hides the live feed. Calling it while stopped is a no-op.
	StopPreview() error
	// Close releases the device. The camera must not be used afterwards.
	Close() error
}
