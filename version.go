package notepad

import (
	_ "embed"

	"github.com/aretw0/notepad/internal/platform"
)

// Version is the release version of the module.
//
//go:embed VERSION
var Version string

// ErrRootNotFound is returned by FindRoot when no store root is found.
var ErrRootNotFound = platform.ErrRootNotFound

// FindRoot walks upwards from dir to the nearest store root.
func FindRoot(dir string) (string, error) {
	return platform.FindRoot(dir)
}
