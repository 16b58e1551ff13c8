package sandsh

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FsMode selects how an executor sees the filesystem.
type FsMode string

const (
	// FsModeOS operates on the host filesystem directly.
	FsModeOS FsMode = "os"
	// FsModeJail confines every path under a host directory.
	FsModeJail FsMode = "jail"
	// FsModeOverlay reads from a host directory and keeps all writes in memory.
	FsModeOverlay FsMode = "overlay"
	// FsModeMemory uses an empty in-memory filesystem.
	FsModeMemory FsMode = "memory"
)

// ParseFsMode validates a mode name. The empty string means FsModeOS.
func ParseFsMode(s string) (FsMode, error) {
	switch m := FsMode(s); m {
	case "":
		return FsModeOS, nil
	case FsModeOS, FsModeJail, FsModeOverlay, FsModeMemory:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filesystem mode %q", s)
	}
}

// NewSandboxFs builds the filesystem for mode. root is required for the
// jail and overlay modes and must be an existing directory.
func NewSandboxFs(mode FsMode, root string) (afero.Fs, error) {
	switch mode {
	case "", FsModeOS:
		return afero.NewOsFs(), nil
	case FsModeMemory:
		return afero.NewMemMapFs(), nil
	case FsModeJail, FsModeOverlay:
		base, err := jail(root)
		if err != nil {
			return nil, err
		}
		if mode == FsModeJail {
			return base, nil
		}
		return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs()), nil
	default:
		return nil, fmt.Errorf("unknown filesystem mode %q", mode)
	}
}

func jail(root string) (afero.Fs, error) {
	if root == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid sandbox root: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root is not a directory: %s", absPath)
	}

	return afero.NewBasePathFs(afero.NewOsFs(), absPath), nil
}

// PrepareDirs creates dirs inside fs, skipping empty entries.
func PrepareDirs(fs afero.Fs, dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("prepare %s: %w", dir, err)
		}
	}
	return nil
}
