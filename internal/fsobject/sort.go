package fsobject

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SortKey selects the ordering of a listing.
type SortKey string

// Sort keys.
const (
	SortName  SortKey = "name"
	SortSize  SortKey = "size"
	SortMtime SortKey = "mtime"
	SortType  SortKey = "type"
)

// ErrUnknownSortKey is returned by ParseSortKey.
var ErrUnknownSortKey = errors.New("fsobject: unknown sort key")

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortName, SortSize, SortMtime, SortType:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// Options control ordering and filtering of a listing.
type Options struct {
	Sort       SortKey
	Reverse    bool
	DirsFirst  bool
	ShowHidden bool
}

// DefaultOptions returns name order with directories first.
func DefaultOptions() Options {
	return Options{Sort: SortName, DirsFirst: true}
}

func lessName(a, b *FileEntry) bool {
	la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if la != lb {
		return la < lb
	}
	return a.Name < b.Name
}

// less orders by key. Size and mtime put the largest and newest first.
func less(key SortKey, a, b *FileEntry) bool {
	switch key {
	case SortSize:
		if a.Size != b.Size {
			return a.Size > b.Size
		}
	case SortMtime:
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
	case SortType:
		if ea, eb := a.Ext(), b.Ext(); ea != eb {
			return ea < eb
		}
	}
	return lessName(a, b)
}

// sortEntries orders files in place.
func sortEntries(files []*FileEntry, opts Options) {
	key := opts.Sort
	if key == "" {
		key = SortName
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if opts.DirsFirst && a.IsDir != b.IsDir {
			return a.IsDir
		}
		if opts.Reverse {
			return less(key, b, a)
		}
		return less(key, a, b)
	})
}
