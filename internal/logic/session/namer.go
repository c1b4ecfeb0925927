package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// baseLayout is the session timestamp at second resolution. It still holds
// a space and colons; NewBase makes it filesystem-safe.
const baseLayout = "2006-01-02 15:04:05"

// Namer derives session directories from the local time.
type Namer struct {
	root   string
	now    func() time.Time
	issued map[string]bool
}

// NewNamer creates a Namer for sessions under root.
func NewNamer(root string) *Namer {
	return &Namer{
		root:   root,
		now:    time.Now,
		issued: make(map[string]bool),
	}
}

// Root returns the photos directory.
func (n *Namer) Root() string {
	return n.root
}

// NewBase returns a session directory path such as
// <root>/2017-12-31_23-59-59. When that name was already issued or exists on
// disk (two sessions in one second), a suffix _2, _3, ... is appended.
func (n *Namer) NewBase() string {
	stamp := n.now().Local().Format(baseLayout)
	stamp = strings.ReplaceAll(stamp, " ", "_")
	stamp = strings.ReplaceAll(stamp, ":", "-")

	name := stamp
	for i := 2; n.taken(name); i++ {
		name = fmt.Sprintf("%s_%d", stamp, i)
	}
	n.issued[name] = true
	return filepath.Join(n.root, name)
}

func (n *Namer) taken(name string) bool {
	if n.issued[name] {
		return true
	}
	_, err := os.Lstat(filepath.Join(n.root, name))
	return err == nil
}

// EnsureDir creates path and any missing parents. An existing directory is
// not an error; any other failure wraps ErrDirectoryCreate.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
				return nil
			}
		}
		return fmt.Errorf("%w %s: %w", ErrDirectoryCreate, path, err)
	}
	return nil
}

// PhotoPath returns the file for photo index of total inside base,
// e.g. base/1of4.jpg.
func PhotoPath(base string, index, total int, ext string) string {
	return filepath.Join(base, fmt.Sprintf("%dof%d.%s", index, total, ext))
}

// ResolveRoot anchors a relative dir to the directory holding the running
// executable, so the booth finds its assets and photos wherever it is
// started from.
func ResolveRoot(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), dir), nil
}
