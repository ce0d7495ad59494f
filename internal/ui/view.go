package ui

import (
	"github.com/dshills/rover/internal/fsobject"
)

// View is everything a frontend draws for one frame.
type View struct {
	// Path is the current directory.
	Path string
	// Entries are the visible entries of Path, nil while loading.
	Entries []*fsobject.FileEntry
	Cursor  int
	Loading bool

	// Message is the latest notification; Bad marks errors.
	Message string
	Bad     bool

	// Prompt is the command line being typed, without the colon.
	// Prompting is false when no command line is open.
	Prompt    string
	Prompting bool

	// Indicators are plugin status segments shown on the right.
	Indicators []string
}

// scroll returns the first entry row for a list area of height rows,
// keeping the cursor visible.
func (v View) scroll(height int) int {
	if height <= 0 || len(v.Entries) <= height {
		return 0
	}
	top := v.Cursor - height/2
	if top < 0 {
		top = 0
	}
	if max := len(v.Entries) - height; top > max {
		top = max
	}
	return top
}
