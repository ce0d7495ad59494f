package fsobject

import (
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/dshills/rover/internal/vfs"
)

// FileEntry is one entry of a directory listing.
type FileEntry struct {
	Path      string
	Name      string
	Size      int64
	Mode      fs.FileMode
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool

	// Broken is set for symlinks whose target cannot be resolved.
	Broken bool
}

// Hidden reports whether the entry is a dotfile.
func (e *FileEntry) Hidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

// Ext returns the lower-cased extension without the dot.
func (e *FileEntry) Ext() string {
	if e.IsDir {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(e.Name), "."))
}

// newEntry converts link-level info, resolving symlink targets through
// fsys.
func newEntry(fsys vfs.VFS, p string, info vfs.FileInfo) *FileEntry {
	e := &FileEntry{
		Path:      p,
		Name:      info.Name(),
		Size:      info.Size(),
		Mode:      info.Mode(),
		ModTime:   info.ModTime(),
		IsDir:     info.IsDir(),
		IsSymlink: info.IsSymlink(),
	}
	if e.IsSymlink {
		target, err := fsys.Stat(p)
		if err != nil {
			e.Broken = true
			return e
		}
		e.IsDir = target.IsDir()
		e.Size = target.Size()
		e.ModTime = target.ModTime()
	}
	return e
}
