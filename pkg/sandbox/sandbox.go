package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/osbeck/labops/pkg/fault"
)

// Sandbox confines path resolution to a single base directory tree.
// Resolution is pure validation: it never creates or touches anything.
type Sandbox struct {
	base string
}

// New canonicalizes base and returns a sandbox rooted there. The base
// must exist.
func New(base string) (*Sandbox, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base %s: %w", base, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize base %s: %w", base, err)
	}
	return &Sandbox{base: canonical}, nil
}

func (s *Sandbox) Base() string { return s.base }

// Resolve canonicalizes candidate (relative candidates are joined to the
// base first) and returns the absolute path if it is the base or a
// descendant of it. Anything else fails with a path_escape fault. The
// candidate itself need not exist; symlinks are evaluated on its deepest
// existing ancestor so a not-yet-written file still resolves.
func (s *Sandbox) Resolve(candidate string) (string, error) {
	path := candidate
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.base, path)
	}
	resolved, err := canonicalize(path)
	if err != nil {
		return "", fmt.Errorf("canonicalize %s: %w", candidate, err)
	}
	if resolved != s.base && !strings.HasPrefix(resolved, s.base+string(os.PathSeparator)) {
		return "", fault.PathEscape("path escapes allowed base: %s not within %s", resolved, s.base)
	}
	return resolved, nil
}

// canonicalize makes path absolute, collapses dot segments, and
// evaluates symlinks on the longest prefix that exists.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rest := ""
	dir := abs
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(resolved, rest), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
