package fsobject

import (
	"path"
	"time"
)

// Directory is the cached listing of one directory.
//
// A Directory is owned by the runtime goroutine and is not safe for
// concurrent use.
type Directory struct {
	Path string

	// Files holds every entry in display order, nil while unloaded.
	Files []*FileEntry

	// LastLoadedAt is the time of the last committed scan.
	LastLoadedAt time.Time

	// Cursor indexes the visible entries.
	Cursor int

	opts    Options
	visible []*FileEntry
	stale   bool
	loading bool
	loadErr error
	now     func() time.Time
}

// NewDirectory creates an unloaded directory for an absolute path.
func NewDirectory(p string) *Directory {
	return &Directory{
		Path: p,
		opts: DefaultOptions(),
		now:  time.Now,
	}
}

// SetClock replaces time.Now for LastLoadedAt stamps.
func (d *Directory) SetClock(now func() time.Time) {
	if now != nil {
		d.now = now
	}
}

// Name returns the base name of the directory.
func (d *Directory) Name() string {
	return path.Base(d.Path)
}

// Loaded reports whether a scan has been committed since the last Clear.
func (d *Directory) Loaded() bool {
	return d.Files != nil
}

// Stale reports whether the directory changed on disk since loading.
func (d *Directory) Stale() bool {
	return d.stale
}

// MarkStale flags the listing for rescanning.
func (d *Directory) MarkStale() {
	d.stale = true
}

// Loading reports whether a scan task is in flight.
func (d *Directory) Loading() bool {
	return d.loading
}

// LoadErr returns the error of the last failed scan, or nil.
func (d *Directory) LoadErr() error {
	return d.loadErr
}

// NeedsLoad reports whether the directory is unloaded or stale and no
// scan is already running.
func (d *Directory) NeedsLoad() bool {
	return !d.loading && (!d.Loaded() || d.stale)
}

// Clear drops the listing and view state, returning the directory to
// its unloaded form.
func (d *Directory) Clear() {
	d.Files = nil
	d.visible = nil
	d.Cursor = 0
	d.LastLoadedAt = time.Time{}
	d.stale = false
	d.loadErr = nil
	d.opts = DefaultOptions()
}

// Options returns the ordering and filter options.
func (d *Directory) Options() Options {
	return d.opts
}

// SetOptions changes ordering and filtering, keeping the cursor on the
// same entry when it is still visible.
func (d *Directory) SetOptions(opts Options) {
	if opts == d.opts {
		return
	}
	d.opts = opts
	if d.Files != nil {
		d.commit(d.Files)
	}
}

// Visible returns the entries shown with the current options.
func (d *Directory) Visible() []*FileEntry {
	return d.visible
}

// Current returns the entry under the cursor, or nil.
func (d *Directory) Current() *FileEntry {
	if d.Cursor < 0 || d.Cursor >= len(d.visible) {
		return nil
	}
	return d.visible[d.Cursor]
}

// MoveCursor moves the cursor by delta, clamped to the visible entries.
func (d *Directory) MoveCursor(delta int) {
	d.setCursor(d.Cursor + delta)
}

// Select moves the cursor to the named entry. It reports whether the
// entry is visible.
func (d *Directory) Select(name string) bool {
	for i, e := range d.visible {
		if e.Name == name {
			d.Cursor = i
			return true
		}
	}
	return false
}

func (d *Directory) setCursor(i int) {
	if i >= len(d.visible) {
		i = len(d.visible) - 1
	}
	if i < 0 {
		i = 0
	}
	d.Cursor = i
}

// commit installs scanned entries in order.
func (d *Directory) commit(files []*FileEntry) {
	var selected string
	if cur := d.Current(); cur != nil {
		selected = cur.Name
	}

	if files == nil {
		files = []*FileEntry{}
	}
	sortEntries(files, d.opts)
	d.Files = files

	d.visible = d.visible[:0]
	for _, e := range files {
		if d.opts.ShowHidden || !e.Hidden() {
			d.visible = append(d.visible, e)
		}
	}

	if selected == "" || !d.Select(selected) {
		d.setCursor(d.Cursor)
	}
}
