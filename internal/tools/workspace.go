package tools

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrAccessDenied is returned when a tool path resolves outside the
// workspace root, whether by traversal segments or through a symlink.
var ErrAccessDenied = errors.New("access denied: path outside workspace")

// resolve maps a workspace-relative path to an absolute path, enforcing
// that the result stays under the workspace root. Symlinks are resolved
// against the deepest existing ancestor so that a link pointing outside
// the root is rejected even when the final component does not exist yet.
func (r *Registry) resolve(rel string) (string, error) {
	full := rel
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.root, rel)
	}
	full = filepath.Clean(full)
	if !within(full, r.root) {
		return "", ErrAccessDenied
	}
	resolved, err := resolveExisting(full)
	if err != nil {
		return "", err
	}
	if !within(resolved, r.root) {
		return "", ErrAccessDenied
	}
	return full, nil
}

// within reports whether path is root itself or a descendant of root.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and rejoins the non-existing remainder.
func resolveExisting(path string) (string, error) {
	suffix := ""
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(cur), suffix)
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		cur = parent
	}
}
