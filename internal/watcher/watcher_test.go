package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeWatcher records Watch/Unwatch calls and serves queued events.
type fakeWatcher struct {
	paths  map[string]bool
	fail   map[string]error
	events chan Event
	errs   chan error
}

func newFakeWatcher(paths ...string) *fakeWatcher {
	f := &fakeWatcher{
		paths:  map[string]bool{},
		fail:   map[string]error{},
		events: make(chan Event, 16),
		errs:   make(chan error, 16),
	}
	for _, p := range paths {
		f.paths[p] = true
	}
	return f
}

func (f *fakeWatcher) Watch(p string) error {
	if err := f.fail[p]; err != nil {
		return err
	}
	if f.paths[p] {
		return ErrAlreadyWatching
	}
	f.paths[p] = true
	return nil
}

func (f *fakeWatcher) Unwatch(p string) error {
	if !f.paths[p] {
		return ErrNotWatching
	}
	delete(f.paths, p)
	return nil
}

func (f *fakeWatcher) WatchedPaths() []string { return sortedKeys(f.paths) }
func (f *fakeWatcher) Events() <-chan Event   { return f.events }
func (f *fakeWatcher) Errors() <-chan error   { return f.errs }
func (f *fakeWatcher) Close() error           { return nil }

func TestSync(t *testing.T) {
	f := newFakeWatcher("/", "/old")
	f.fail["/bad"] = ErrPathNotExist

	err := Sync(f, []string{"/", "/a", "/bad", "/a/b"})
	if !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Sync() error = %v, want ErrPathNotExist", err)
	}
	if diff := cmp.Diff([]string{"/", "/a", "/a/b"}, f.WatchedPaths()); diff != "" {
		t.Errorf("WatchedPaths() (-want +got):\n%s", diff)
	}
}

func TestDrain(t *testing.T) {
	f := newFakeWatcher()
	f.events <- Event{Path: "/a/file", Op: OpWrite}
	f.events <- Event{Path: "/a/other", Op: OpCreate}
	f.events <- Event{Path: "/b/sub", Op: OpRemove}
	f.errs <- errors.New("overflow")

	var got []error
	dirs := Drain(f, 10, func(err error) { got = append(got, err) })
	if diff := cmp.Diff([]string{"/a", "/b", "/b/sub"}, dirs); diff != "" {
		t.Errorf("Drain() (-want +got):\n%s", diff)
	}
	if len(got) != 1 {
		t.Errorf("errors = %v, want one", got)
	}

	if dirs := Drain(f, 10, nil); len(dirs) != 0 {
		t.Errorf("Drain() on empty channel = %v", dirs)
	}
}

func TestDrain_Max(t *testing.T) {
	f := newFakeWatcher()
	f.events <- Event{Path: "/a/x", Op: OpWrite}
	f.events <- Event{Path: "/b/x", Op: OpWrite}

	if dirs := Drain(f, 1, nil); len(dirs) != 1 || dirs[0] != "/a" {
		t.Errorf("Drain(max=1) = %v, want [/a]", dirs)
	}
	if len(f.events) != 1 {
		t.Errorf("pending = %d, want 1", len(f.events))
	}
}

func TestOp(t *testing.T) {
	op := OpCreate | OpWrite
	if !op.Has(OpCreate) || !op.Has(OpWrite) || op.Has(OpRemove) {
		t.Errorf("Has() mismatch for %b", op)
	}
	if OpRename.String() != "RENAME" || op.String() != "UNKNOWN" {
		t.Errorf("String() = %q, %q", OpRename.String(), op.String())
	}
}

func TestFSNotifyWatcher_WatchUnwatch(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if !w.IsWatching(dir) {
		t.Error("IsWatching() = false after Watch")
	}
	if err := w.Watch(dir); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("Watch() again error = %v, want ErrAlreadyWatching", err)
	}
	if err := w.Unwatch(dir); err != nil {
		t.Fatalf("Unwatch() error = %v", err)
	}
	if err := w.Unwatch(dir); !errors.Is(err, ErrNotWatching) {
		t.Errorf("Unwatch() again error = %v, want ErrNotWatching", err)
	}
	if err := w.Watch(filepath.Join(dir, "missing")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Watch(missing) error = %v, want ErrPathNotExist", err)
	}
}

func TestFSNotifyWatcher_ReportsChanges(t *testing.T) {
	w, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	defer w.Close()

	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	file := filepath.Join(dir, "new.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == file && ev.Op.Has(OpCreate) {
				if ev.Dirs()[0] != dir {
					t.Errorf("Dirs() = %v, want %s first", ev.Dirs(), dir)
				}
				return
			}
		case <-deadline:
			t.Fatal("no create event within 5s")
		}
	}
}

func TestFSNotifyWatcher_Close(t *testing.T) {
	w, err := NewFSNotifyWatcher(WithBufferSize(4))
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("Events() still open after Close")
	}
	if err := w.Watch(t.TempDir()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch() after Close error = %v, want ErrWatcherClosed", err)
	}
}
