package memory

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/slok/drake/internal/filesystem"
)

type entry struct {
	dir     bool
	modTime time.Time
}

// Filesystem is an in-memory filesystem.Provider.
//
// Top level paths (the ones without parent) are always creatable, everything else
// needs the parent to exist like the OS filesystem.
type Filesystem struct {
	entries map[string]entry
	now     func() time.Time
	mu      sync.RWMutex
}

var _ filesystem.Provider = &Filesystem{}

// NewFilesystem returns an empty filesystem. now sets the modification time of created
// directories, time.Now when nil.
func NewFilesystem(now func() time.Time) *Filesystem {
	if now == nil {
		now = time.Now
	}

	return &Filesystem{
		entries: map[string]entry{},
		now:     now,
	}
}

func clean(p string) string { return path.Clean(strings.ReplaceAll(p, `\`, "/")) }

// Touch creates or updates a file with the modification time.
func (f *Filesystem) Touch(p string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[clean(p)] = entry{modTime: modTime}
}

// AddDir creates or updates a directory with the modification time, parents are not required.
func (f *Filesystem) AddDir(p string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[clean(p)] = entry{dir: true, modTime: modTime}
}

// IsDir returns true if the path exists and is a directory.
func (f *Filesystem) IsDir(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[clean(p)]
	return ok && e.dir
}

func (f *Filesystem) Exists(p string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.entries[clean(p)]
	return ok, nil
}

func (f *Filesystem) ModTime(p string) (time.Time, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[clean(p)]
	if !ok {
		return time.Time{}, fmt.Errorf("could not stat %q: %w", p, fs.ErrNotExist)
	}
	return e.modTime, nil
}

func (f *Filesystem) Mkdir(p string) error {
	p = clean(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[p]; ok {
		return fmt.Errorf("could not create directory %q: %w", p, fs.ErrExist)
	}
	if parent, ok := filesystem.Parent(p); ok {
		e, ok := f.entries[parent]
		if !ok {
			return fmt.Errorf("could not create directory %q: %w", p, fs.ErrNotExist)
		}
		if !e.dir {
			return fmt.Errorf("could not create directory %q: parent is not a directory: %w", p, fs.ErrInvalid)
		}
	}

	f.entries[p] = entry{dir: true, modTime: f.now()}
	return nil
}

func (f *Filesystem) Remove(p string) error {
	p = clean(p)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[p]; !ok {
		return fmt.Errorf("could not remove %q: %w", p, fs.ErrNotExist)
	}
	for k := range f.entries {
		if strings.HasPrefix(k, p+"/") {
			return fmt.Errorf("could not remove %q: directory not empty: %w", p, fs.ErrInvalid)
		}
	}

	delete(f.entries, p)
	return nil
}

func (f *Filesystem) Parent(p string) (string, bool) { return filesystem.Parent(p) }
