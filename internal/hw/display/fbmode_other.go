//go:build !linux

package display

import (
	"errors"
	"os"
)

func queryMode(f *os.File) (Mode, error) {
	return Mode{}, errors.New("framebuffer devices are only supported on linux")
}
