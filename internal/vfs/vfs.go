// Package vfs abstracts the file system reads directory scans need, so
// scans run against the OS or an in-memory tree.
package vfs

import (
	"io/fs"
	"time"
)

// VFS is the file system surface used by rover.
type VFS interface {
	// ReadDirNames returns the entry names of a directory, unsorted.
	ReadDirNames(path string) ([]string, error)

	// Stat returns file information, following symlinks.
	Stat(path string) (FileInfo, error)

	// Lstat returns file information without following symlinks.
	Lstat(path string) (FileInfo, error)

	// Abs returns the absolute, cleaned path.
	Abs(path string) (string, error)

	// Join joins path elements.
	Join(elem ...string) string

	// IsDir returns true if the path is a directory.
	IsDir(path string) bool
}

// FileInfo describes a file or directory.
type FileInfo struct {
	path    string
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

// NewFileInfo creates a FileInfo from the given parameters.
func NewFileInfo(path, name string, size int64, mode fs.FileMode, modTime time.Time, isDir bool) FileInfo {
	return FileInfo{
		path:    path,
		name:    name,
		size:    size,
		mode:    mode,
		modTime: modTime,
		isDir:   isDir,
	}
}

// Path returns the full path.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the base name.
func (fi FileInfo) Name() string { return fi.name }

// Size returns the file size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode returns the file mode.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir returns true if this is a directory.
func (fi FileInfo) IsDir() bool { return fi.isDir }

// IsSymlink returns true if this is a symbolic link.
func (fi FileInfo) IsSymlink() bool { return fi.mode&fs.ModeSymlink != 0 }
