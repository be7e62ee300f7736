package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// uploadsMarker is the path segment that identifies an asset reference.
// Everything before it (scheme, host, route prefix) is discarded and the
// remainder is joined to the local assets root.
const uploadsMarker = "/uploads/"

var (
	// ErrInvalidReference means the asset reference was empty or did not
	// contain the uploads marker.
	ErrInvalidReference = errors.New("invalid asset reference")

	// ErrAssetNotFound means a resolved path does not point at a usable
	// regular file.
	ErrAssetNotFound = errors.New("asset not found")
)

// Locator maps asset reference URLs to files under the local assets root.
type Locator struct {
	root string
}

func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// Resolve converts an asset reference ("/uploads/audio/x.wav", or a full
// URL containing that path) into a local file path under the assets root.
func (l *Locator) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	idx := strings.Index(ref, uploadsMarker)
	if idx == -1 {
		return "", fmt.Errorf("%w: no %q segment in %q", ErrInvalidReference, uploadsMarker, ref)
	}

	rel := ref[idx+len(uploadsMarker):]
	return filepath.Join(l.root, filepath.FromSlash(rel)), nil
}

// Validate checks that a resolved path exists and is a non-empty regular
// file. Read-only; the file is not opened.
func (l *Locator) Validate(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAssetNotFound, path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrAssetNotFound, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrAssetNotFound, path)
	}
	return nil
}
