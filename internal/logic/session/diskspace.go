package session

import (
	"fmt"

	"github.com/cjeanneret/GoBooth/internal/debug"
	"github.com/shirou/gopsutil/v3/disk"
)

// FreeSpace returns the bytes available to the booth on the filesystem
// holding dir.
func FreeSpace(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, fmt.Errorf("disk usage of %s: %w", dir, err)
	}
	return usage.Free, nil
}

// CheckFreeSpace fails with ErrLowDiskSpace when dir has less than minFree bytes
// free. Zero disables the check.
func CheckFreeSpace(dir string, minFree uint64) error {
	if minFree == 0 {
		return nil
	}
	free, err := FreeSpace(dir)
	if err != nil {
		return err
	}
	debug.Verbose("Free space in %s: %d MiB", dir, free/(1024*1024))
	if free < minFree {
		return fmt.Errorf("%w: %s has %d MiB free, need %d MiB", ErrLowDiskSpace, dir, free/(1024*1024), minFree/(1024*1024))
	}
	return nil
}
