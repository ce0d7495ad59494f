// Package watcher reports external changes to directories rover has
// listed, so their cached listings can be marked stale.
//
// Events arrive on a buffered channel filled by a background goroutine.
// The runtime drains it without blocking once per loop iteration.
package watcher

import (
	"errors"
	"path/filepath"
	"sort"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a file system change event.
type Event struct {
	// Path is the absolute path of the affected file or directory.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Dirs returns the directories whose listing the event invalidates: the
// parent, plus the path itself when it disappeared.
func (e Event) Dirs() []string {
	dirs := []string{filepath.Dir(e.Path)}
	if e.Op.Has(OpRemove) || e.Op.Has(OpRename) {
		dirs = append(dirs, e.Path)
	}
	return dirs
}

// Watcher monitors directories for changes.
type Watcher interface {
	// Watch starts watching a directory.
	Watch(path string) error

	// Unwatch stops watching a directory.
	Unwatch(path string) error

	// WatchedPaths returns all watched paths, sorted.
	WatchedPaths() []string

	// Events returns the channel of change events. It is closed by Close.
	Events() <-chan Event

	// Errors returns the channel of watcher errors. It is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// DropCounter is implemented by watchers that discard events when
// their channel is full.
type DropCounter interface {
	// Dropped returns the number of events discarded so far.
	Dropped() int64
}

// Sync makes the watched set equal to paths. Paths that cannot be
// watched are skipped; the first such error is returned.
func Sync(w Watcher, paths []string) error {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}

	var firstErr error
	for _, p := range w.WatchedPaths() {
		if want[p] {
			delete(want, p)
			continue
		}
		if err := w.Unwatch(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	missing := make([]string, 0, len(want))
	for p := range want {
		missing = append(missing, p)
	}
	sort.Strings(missing)
	for _, p := range missing {
		if err := w.Watch(p); err != nil && !errors.Is(err, ErrAlreadyWatching) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Drain reads up to max pending events without blocking and returns the
// distinct directories they invalidate, sorted. Pending errors are
// passed to onError when it is non-nil.
func Drain(w Watcher, max int, onError func(error)) []string {
	seen := make(map[string]bool)

events:
	for i := 0; i < max; i++ {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				break events
			}
			for _, d := range ev.Dirs() {
				seen[d] = true
			}
		default:
			break events
		}
	}

errs:
	for i := 0; i < max; i++ {
		select {
		case err, ok := <-w.Errors():
			if !ok {
				break errs
			}
			if onError != nil {
				onError(err)
			}
		default:
			break errs
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
