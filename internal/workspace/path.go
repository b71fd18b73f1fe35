package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Path validation errors.
var (
	ErrPathEscape  = errors.New("path escapes project root")
	ErrInvalidPath = errors.New("invalid path")
)

// Resolve joins rel onto root and returns the cleaned result, failing with
// ErrPathEscape if it would land outside root. It never touches the
// filesystem; symlinks are not followed.
//
// Absolute inputs are accepted only when they already lie under root.
func Resolve(root, rel string) (string, error) {
	if strings.TrimSpace(rel) == "" || strings.ContainsRune(rel, '\x00') {
		return "", ErrInvalidPath
	}

	base := filepath.Clean(root)

	var joined string
	if filepath.IsAbs(rel) {
		joined = filepath.Clean(rel)
	} else {
		joined = filepath.Join(base, rel)
	}

	// Rel tells us whether joined is reachable from base without going up.
	// "..." and "..foo" are ordinary names, not traversals.
	r, err := filepath.Rel(base, joined)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}

	return joined, nil
}

// Relative returns target relative to root using forward slashes.
func Relative(root, target string) (string, error) {
	r, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return filepath.ToSlash(r), nil
}
