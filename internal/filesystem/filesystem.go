// Package filesystem has the filesystem the task engine uses to decide the freshness
// of file tasks and to create directories.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Provider is the filesystem used by the task engine.
//
// Paths use forward slashes, a drive prefix (`c:`) is treated as a root.
type Provider interface {
	// Exists returns true if the path exists.
	Exists(p string) (bool, error)
	// ModTime returns the last modification time of an existing path.
	ModTime(p string) (time.Time, error)
	// Mkdir creates a single directory level, the parent must exist.
	Mkdir(p string) error
	// Remove removes a file or an empty directory.
	Remove(p string) error
	// Parent returns the immediate parent of a path, false when the path is top level.
	Parent(p string) (parent string, ok bool)
}

// Parent returns the immediate parent of a slash separated path. Roots (`.`, `/`, `c:`
// and `c:/`) are never returned as parents.
func Parent(p string) (string, bool) {
	p = path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if isRoot(p) {
		return "", false
	}

	d := path.Dir(p)
	if d == p || isRoot(d) {
		return "", false
	}

	return d, true
}

// Ancestors returns the chain of paths from the top-most parent down to the path itself.
func Ancestors(p Provider, target string) []string {
	chain := []string{path.Clean(strings.ReplaceAll(target, `\`, "/"))}
	for {
		parent, ok := p.Parent(chain[0])
		if !ok {
			return chain
		}
		chain = append([]string{parent}, chain...)
	}
}

func isRoot(p string) bool {
	switch {
	case p == "." || p == "/" || p == "":
		return true
	case len(p) == 2 && p[1] == ':' && isLetter(p[0]):
		return true
	case len(p) == 3 && p[1] == ':' && p[2] == '/' && isLetter(p[0]):
		return true
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// OS is the Provider backed by the host filesystem.
type OS struct {
	// Root is the directory relative paths are resolved from, the working directory
	// by default.
	Root string
	// DirPerm is the permission used for created directories, 0755 by default.
	DirPerm fs.FileMode
}

var _ Provider = OS{}

func (o OS) Exists(p string) (bool, error) {
	_, err := os.Stat(o.path(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("could not stat %q: %w", p, err)
	}
	return true, nil
}

func (o OS) ModTime(p string) (time.Time, error) {
	info, err := os.Stat(o.path(p))
	if err != nil {
		return time.Time{}, fmt.Errorf("could not stat %q: %w", p, err)
	}
	return info.ModTime(), nil
}

func (o OS) Mkdir(p string) error {
	perm := o.DirPerm
	if perm == 0 {
		perm = 0o755
	}

	if err := os.Mkdir(o.path(p), perm); err != nil {
		return fmt.Errorf("could not create directory %q: %w", p, err)
	}
	return nil
}

func (o OS) Remove(p string) error {
	if err := os.Remove(o.path(p)); err != nil {
		return fmt.Errorf("could not remove %q: %w", p, err)
	}
	return nil
}

func (o OS) Parent(p string) (string, bool) { return Parent(p) }

func (o OS) path(p string) string {
	p = filepath.FromSlash(p)
	if o.Root == "" || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return p
	}
	return filepath.Join(o.Root, p)
}
