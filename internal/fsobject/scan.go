package fsobject

import (
	"fmt"

	"github.com/dshills/rover/internal/loader"
	"github.com/dshills/rover/internal/vfs"
)

// DefaultChunk is the number of entries stat'ed per scan step.
const DefaultChunk = 64

// LoadTask returns a resumable scan of the directory. Tasks for the same
// path share a description, so queueing a second scan replaces the
// first.
func (d *Directory) LoadTask(fsys vfs.VFS, chunk int) loader.Task {
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	d.loading = true
	return &scanTask{dir: d, fs: fsys, chunk: chunk}
}

// Describe returns the loader description used for scans of p.
func Describe(p string) string {
	return "loading " + p
}

type scanTask struct {
	dir   *Directory
	fs    vfs.VFS
	chunk int

	names   []string
	next    int
	entries []*FileEntry
	listed  bool
}

func (t *scanTask) Description() string {
	return Describe(t.dir.Path)
}

func (t *scanTask) Step() (loader.StepResult, error) {
	if !t.listed {
		names, err := t.fs.ReadDirNames(t.dir.Path)
		if err != nil {
			err = fmt.Errorf("fsobject: scan %s: %w", t.dir.Path, err)
			t.fail(err)
			return loader.Done, err
		}
		t.names = names
		t.entries = make([]*FileEntry, 0, len(names))
		t.listed = true
		return loader.More, nil
	}

	if t.next < len(t.names) {
		end := min(t.next+t.chunk, len(t.names))
		for _, name := range t.names[t.next:end] {
			p := t.fs.Join(t.dir.Path, name)
			info, err := t.fs.Lstat(p)
			if err != nil {
				// Removed between listing and stat.
				continue
			}
			t.entries = append(t.entries, newEntry(t.fs, p, info))
		}
		t.next = end
		return loader.More, nil
	}

	d := t.dir
	d.commit(t.entries)
	d.LastLoadedAt = d.now()
	d.stale = false
	d.loading = false
	d.loadErr = nil
	return loader.Done, nil
}

// fail commits an empty listing so the directory is not rescanned until
// it is marked stale again.
func (t *scanTask) fail(err error) {
	d := t.dir
	d.commit(nil)
	d.LastLoadedAt = d.now()
	d.stale = false
	d.loading = false
	d.loadErr = err
}

// Unload releases the directory when the scan is dropped unfinished.
func (t *scanTask) Unload() {
	t.dir.loading = false
}
