// Package security confines tool-supplied paths to a configured directory.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves paths received from MCP clients and rejects any
// that escape the configured directory, including through symlinks.
type PathValidator struct {
	root string // absolute, symlinks resolved
}

// NewPathValidator creates a validator rooted at an existing directory
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", directory, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory %s: %w", directory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", directory)
	}

	return &PathValidator{root: root}, nil
}

// Root returns the resolved directory
func (v *PathValidator) Root() string {
	return v.root
}

// ResolveInput returns the absolute path of an existing file inside the
// directory. Relative paths are taken relative to the directory.
func (v *PathValidator) ResolveInput(path string) (string, error) {
	abs, err := v.absolute(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !v.contains(resolved) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return resolved, nil
}

// ResolveOutput returns the absolute path for a file to be written inside
// the directory. The file need not exist but its parent must.
func (v *PathValidator) ResolveOutput(path string) (string, error) {
	abs, err := v.absolute(path)
	if err != nil {
		return "", err
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("cannot access output directory for %s: %w", path, err)
	}
	if !v.contains(parent) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	target := filepath.Join(parent, filepath.Base(abs))
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("refusing to write through symlink: %s", path)
	}
	return target, nil
}

func (v *PathValidator) absolute(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	return filepath.Clean(path), nil
}

func (v *PathValidator) contains(path string) bool {
	if path == v.root {
		return true
	}
	rootWithSep := v.root
	if !strings.HasSuffix(rootWithSep, string(filepath.Separator)) {
		rootWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, rootWithSep)
}
