package ui

import "time"

// Frontend draws views and reports input.
type Frontend interface {
	// Init takes over the output device.
	Init() error
	// Close restores the output device.
	Close()
	// Draw renders a full frame.
	Draw(v View)
	// Poll waits up to timeout for input. The bool is false on timeout.
	Poll(timeout time.Duration) (Input, bool)
	// SetTitle sets the window title, where supported.
	SetTitle(title string)
}
