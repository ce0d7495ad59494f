package vfs

import (
	"io/fs"
	"path"
	"strings"
	"sync"
	"syscall"
	"time"
)

// MemFS implements VFS using an in-memory tree. It is used by tests.
//
// MemFS is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]time.Time
	links map[string]string
}

type memFile struct {
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates a new in-memory file system holding only "/".
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memFile),
		dirs:  map[string]time.Time{"/": time.Now()},
		links: make(map[string]string),
	}
}

// Ensure MemFS implements VFS.
var _ VFS = (*MemFS)(nil)

// AddFile creates a file of the given size, creating parent directories.
func (m *MemFS) AddFile(filePath string, size int64, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filePath = cleanPath(filePath)
	m.mkdirAll(path.Dir(filePath), modTime)
	m.files[filePath] = &memFile{size: size, mode: 0644, modTime: modTime}
}

// MkdirAll creates a directory and all parent directories.
func (m *MemFS) MkdirAll(dirPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(cleanPath(dirPath), time.Now())
}

func (m *MemFS) mkdirAll(dirPath string, modTime time.Time) {
	current := ""
	for _, part := range strings.Split(strings.Trim(dirPath, "/"), "/") {
		if part == "" {
			continue
		}
		current += "/" + part
		if _, ok := m.dirs[current]; !ok {
			m.dirs[current] = modTime
		}
	}
}

// Symlink creates a link at linkPath pointing at target.
func (m *MemFS) Symlink(target, linkPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	linkPath = cleanPath(linkPath)
	m.mkdirAll(path.Dir(linkPath), time.Now())
	m.links[linkPath] = cleanPath(target)
}

// RemoveAll removes a path and everything below it.
func (m *MemFS) RemoveAll(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = cleanPath(p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	for f := range m.files {
		if f == p || strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d != "/" && (d == p || strings.HasPrefix(d, prefix)) {
			delete(m.dirs, d)
		}
	}
	for l := range m.links {
		if l == p || strings.HasPrefix(l, prefix) {
			delete(m.links, l)
		}
	}
}

// ReadDirNames returns the direct children of a directory.
func (m *MemFS) ReadDirNames(dirPath string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dirPath = cleanPath(dirPath)
	if _, ok := m.dirs[dirPath]; !ok {
		if _, isFile := m.files[dirPath]; isFile {
			return nil, &fs.PathError{Op: "readdirent", Path: dirPath, Err: syscall.ENOTDIR}
		}
		return nil, &fs.PathError{Op: "open", Path: dirPath, Err: fs.ErrNotExist}
	}

	prefix := dirPath
	if prefix != "/" {
		prefix += "/"
	}

	var names []string
	collect := func(p string) {
		if p == dirPath || !strings.HasPrefix(p, prefix) {
			return
		}
		if rest := strings.TrimPrefix(p, prefix); !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.dirs {
		collect(p)
	}
	for p := range m.links {
		collect(p)
	}
	return names, nil
}

// Stat returns file information, following symlinks.
func (m *MemFS) Stat(filePath string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filePath = cleanPath(filePath)
	resolved := filePath
	for i := 0; i < 8; i++ {
		target, ok := m.links[resolved]
		if !ok {
			break
		}
		resolved = target
	}
	info, err := m.lstat(resolved)
	if err != nil {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: filePath, Err: fs.ErrNotExist}
	}
	return NewFileInfo(filePath, path.Base(filePath), info.size, info.mode, info.modTime, info.isDir), nil
}

// Lstat returns file information without following symlinks.
func (m *MemFS) Lstat(filePath string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lstat(cleanPath(filePath))
}

func (m *MemFS) lstat(filePath string) (FileInfo, error) {
	if f, ok := m.files[filePath]; ok {
		return NewFileInfo(filePath, path.Base(filePath), f.size, f.mode, f.modTime, false), nil
	}
	if modTime, ok := m.dirs[filePath]; ok {
		return NewFileInfo(filePath, path.Base(filePath), 0, fs.ModeDir|0755, modTime, true), nil
	}
	if _, ok := m.links[filePath]; ok {
		return NewFileInfo(filePath, path.Base(filePath), 0, fs.ModeSymlink|0777, time.Time{}, false), nil
	}
	return FileInfo{}, &fs.PathError{Op: "lstat", Path: filePath, Err: fs.ErrNotExist}
}

// Abs returns the cleaned path; MemFS paths are always absolute.
func (m *MemFS) Abs(filePath string) (string, error) {
	return cleanPath(filePath), nil
}

// Join joins path elements.
func (m *MemFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// IsDir returns true if the path is a directory, following symlinks.
func (m *MemFS) IsDir(filePath string) bool {
	info, err := m.Stat(filePath)
	return err == nil && info.IsDir()
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
