package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func sorted(names []string) []string {
	sort.Strings(names)
	return names
}

func TestMemFS_ReadDirNames(t *testing.T) {
	m := NewMemFS()
	now := time.Now()
	m.AddFile("/home/user/a.txt", 10, now)
	m.AddFile("/home/user/docs/b.txt", 20, now)
	m.MkdirAll("/home/user/empty")
	m.Symlink("/home/user/docs", "/home/user/link")

	names, err := m.ReadDirNames("/home/user")
	if err != nil {
		t.Fatalf("ReadDirNames() error = %v", err)
	}
	want := []string{"a.txt", "docs", "empty", "link"}
	if diff := cmp.Diff(want, sorted(names)); diff != "" {
		t.Errorf("ReadDirNames() (-want +got):\n%s", diff)
	}

	if _, err := m.ReadDirNames("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadDirNames(missing) error = %v", err)
	}
	if _, err := m.ReadDirNames("/home/user/a.txt"); err == nil {
		t.Error("ReadDirNames(file) succeeded")
	}
}

func TestMemFS_StatAndLstat(t *testing.T) {
	m := NewMemFS()
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m.AddFile("/d/file", 42, mtime)
	m.Symlink("/d", "/link")

	info, err := m.Stat("/d/file")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 42 || !info.ModTime().Equal(mtime) || info.IsDir() || info.Name() != "file" {
		t.Errorf("Stat() = %+v", info)
	}

	link, err := m.Lstat("/link")
	if err != nil {
		t.Fatalf("Lstat() error = %v", err)
	}
	if !link.IsSymlink() || link.IsDir() {
		t.Errorf("Lstat(link) symlink=%v dir=%v", link.IsSymlink(), link.IsDir())
	}
	target, err := m.Stat("/link")
	if err != nil || !target.IsDir() || target.Path() != "/link" {
		t.Errorf("Stat(link) = %+v, %v", target, err)
	}
	if !m.IsDir("/link") || m.IsDir("/d/file") {
		t.Error("IsDir() mismatch")
	}

	m.Symlink("/nowhere", "/dangling")
	if _, err := m.Stat("/dangling"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(dangling) error = %v", err)
	}
}

func TestMemFS_RemoveAll(t *testing.T) {
	m := NewMemFS()
	m.AddFile("/a/b/c", 1, time.Now())
	m.AddFile("/ab", 1, time.Now())
	m.RemoveAll("/a")

	if m.IsDir("/a") || m.IsDir("/a/b") {
		t.Error("RemoveAll() left directories")
	}
	if _, err := m.Stat("/ab"); err != nil {
		t.Error("RemoveAll() removed a sibling sharing the prefix")
	}
}

func TestMemFS_Abs(t *testing.T) {
	m := NewMemFS()
	tests := map[string]string{
		"":          "/",
		"a/b":       "/a/b",
		"/a/../b/":  "/b",
		"/x/./y//z": "/x/y/z",
	}
	for in, want := range tests {
		if got, _ := m.Abs(in); got != want {
			t.Errorf("Abs(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOSFS(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "ln")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	f := NewOSFS()
	names, err := f.ReadDirNames(dir)
	if err != nil {
		t.Fatalf("ReadDirNames() error = %v", err)
	}
	if diff := cmp.Diff([]string{"f.txt", "ln", "sub"}, sorted(names)); diff != "" {
		t.Errorf("ReadDirNames() (-want +got):\n%s", diff)
	}

	info, err := f.Stat(f.Join(dir, "f.txt"))
	if err != nil || info.Size() != 5 {
		t.Errorf("Stat() = %+v, %v", info, err)
	}
	ln, err := f.Lstat(f.Join(dir, "ln"))
	if err != nil || !ln.IsSymlink() {
		t.Errorf("Lstat(ln) = %+v, %v", ln, err)
	}
	if !f.IsDir(f.Join(dir, "ln")) {
		t.Error("IsDir(ln) = false, want true through the link")
	}
	abs, err := f.Abs(".")
	if err != nil || !filepath.IsAbs(abs) {
		t.Errorf("Abs(.) = %q, %v", abs, err)
	}
}
