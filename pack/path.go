package pack

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/kravl/errors"
)

// CleanPath normalizes a logical package path. The result is slash
// separated, relative and never starts with "..". Absolute paths, paths
// that escape the root and empty paths are rejected.
func CleanPath(p string) (string, error) {
	slashed := strings.ReplaceAll(p, `\`, "/")
	if slashed == "" || path.IsAbs(slashed) || filepath.VolumeName(p) != "" {
		return "", errors.InvalidPath(p)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.InvalidPath(p)
	}
	return cleaned, nil
}

// Resolve joins a logical path onto root and returns the OS path.
func Resolve(root, p string) (string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}

// Rel converts an OS path under root into a logical package path.
func Rel(root, osPath string) (string, error) {
	rel, err := filepath.Rel(root, osPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidPath, "relative path of %s", osPath)
	}
	return CleanPath(filepath.ToSlash(rel))
}
