package app

import (
	"github.com/dshills/rover/internal/ui"
)

// pageSize is the cursor step for page keys.
const pageSize = 10

// handleInput routes one frontend event.
func (r *Runtime) handleInput(in ui.Input) {
	if in.Type != ui.InputKey {
		return
	}
	if r.prompting {
		r.handlePromptKey(in)
		return
	}
	r.handleKey(in)
}

// handleKey applies a key in browsing mode.
func (r *Runtime) handleKey(in ui.Input) {
	d := r.Current()
	var err error

	switch {
	case in.Key == ui.KeyCtrlC || isRune(in, 'q'):
		r.Quit()
	case in.Key == ui.KeyDown || isRune(in, 'j'):
		d.MoveCursor(1)
	case in.Key == ui.KeyUp || isRune(in, 'k'):
		d.MoveCursor(-1)
	case in.Key == ui.KeyPageDown:
		d.MoveCursor(pageSize)
	case in.Key == ui.KeyPageUp:
		d.MoveCursor(-pageSize)
	case in.Key == ui.KeyHome || isRune(in, 'g'):
		d.MoveCursor(-len(d.Visible()))
	case in.Key == ui.KeyEnd || isRune(in, 'G'):
		d.MoveCursor(len(d.Visible()))
	case in.Key == ui.KeyLeft || isRune(in, 'h'):
		err = r.Cd("..")
	case in.Key == ui.KeyRight || in.Key == ui.KeyEnter || isRune(in, 'l'):
		if entry := d.Current(); entry != nil && entry.IsDir {
			err = r.Cd(entry.Path)
		}
	case isRune(in, 'H'):
		err = r.Back()
	case isRune(in, 'L'):
		err = r.Forward()
	case isRune(in, '.'):
		err = r.SetSetting("show_hidden", !r.Settings().ShowHidden)
	case isRune(in, ':'):
		r.prompting = true
		r.prompt = r.prompt[:0]
	}

	if err != nil {
		r.Notify(err.Error(), true)
	}
}

// handlePromptKey edits the command line.
func (r *Runtime) handlePromptKey(in ui.Input) {
	switch in.Key {
	case ui.KeyRune:
		r.prompt = append(r.prompt, in.Rune)
	case ui.KeyBackspace:
		if len(r.prompt) == 0 {
			r.prompting = false
			return
		}
		r.prompt = r.prompt[:len(r.prompt)-1]
	case ui.KeyEscape, ui.KeyCtrlC:
		r.prompting = false
		r.prompt = r.prompt[:0]
	case ui.KeyEnter:
		line := string(r.prompt)
		r.prompting = false
		r.prompt = r.prompt[:0]
		// Failures were already shown by Execute.
		_ = r.Execute(line)
	}
}

func isRune(in ui.Input, c rune) bool {
	return in.Key == ui.KeyRune && in.Rune == c
}
