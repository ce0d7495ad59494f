package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/rover/internal/fsobject"
)

// Styles used by the terminal frontend.
var (
	stylePath   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleFile   = tcell.StyleDefault
	styleDir    = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	styleLink   = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleBroken = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus = tcell.StyleDefault
	styleBad    = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleDimmed = tcell.StyleDefault.Dim(true)
)

// inputBacklog is the capacity of the input channel.
const inputBacklog = 64

// Terminal implements Frontend using tcell. Input is read by a
// background goroutine and handed over on a channel.
type Terminal struct {
	screen tcell.Screen
	events chan Input
	quit   chan struct{}
	done   chan struct{}
}

// NewTerminal creates a frontend on the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalWithScreen(screen), nil
}

// NewTerminalWithScreen creates a frontend on an existing screen, such as
// a tcell simulation screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Ensure Terminal implements Frontend.
var _ Frontend = (*Terminal)(nil)

// Init implements Frontend.
func (t *Terminal) Init() error {
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("ui: init screen: %w", err)
	}
	t.screen.HideCursor()
	t.events = make(chan Input, inputBacklog)
	t.quit = make(chan struct{})
	t.done = make(chan struct{})
	go t.pollLoop()
	return nil
}

// Close implements Frontend.
func (t *Terminal) Close() {
	if t.quit == nil {
		return
	}
	close(t.quit)
	t.screen.Fini()
	<-t.done
	t.quit = nil
}

func (t *Terminal) pollLoop() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		in, ok := convertEvent(ev)
		if !ok {
			continue
		}
		select {
		case t.events <- in:
		case <-t.quit:
			return
		}
	}
}

// Poll implements Frontend.
func (t *Terminal) Poll(timeout time.Duration) (Input, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case in := <-t.events:
		return in, true
	case <-timer.C:
		return Input{}, false
	}
}

// SetTitle implements Frontend.
func (t *Terminal) SetTitle(title string) {
	t.screen.SetTitle(title)
}

// Draw implements Frontend. Row 0 holds the path, the last row the
// status line, and the rows between the listing.
func (t *Terminal) Draw(v View) {
	t.screen.Clear()
	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	putString(t.screen, 0, 0, width, v.Path, stylePath)

	listHeight := height - 2
	if listHeight > 0 {
		t.drawEntries(v, width, listHeight)
	}
	if height > 1 {
		t.drawStatus(v, width, height-1)
	}
	t.screen.Show()
}

func (t *Terminal) drawEntries(v View, width, height int) {
	if v.Entries == nil {
		if v.Loading {
			putString(t.screen, 1, 1, width-1, "loading...", styleDimmed)
		}
		return
	}
	if len(v.Entries) == 0 {
		putString(t.screen, 1, 1, width-1, "empty", styleDimmed)
		return
	}

	top := v.scroll(height)
	for row := 0; row < height && top+row < len(v.Entries); row++ {
		i := top + row
		e := v.Entries[i]
		style := entryStyle(e)
		if i == v.Cursor {
			style = style.Reverse(true)
		}
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		size := ""
		if !e.IsDir {
			size = formatSize(e.Size)
		}
		line := " " + name
		pad := width - uniseg.StringWidth(line) - uniseg.StringWidth(size) - 1
		if pad > 0 {
			line += strings.Repeat(" ", pad) + size + " "
		}
		putString(t.screen, 0, row+1, width, line, style)
	}
}

func (t *Terminal) drawStatus(v View, width, y int) {
	var right []string
	right = append(right, v.Indicators...)
	if n := len(v.Entries); n > 0 {
		right = append(right, fmt.Sprintf("%d/%d", v.Cursor+1, n))
	}
	rightText := strings.Join(right, " ")
	rightWidth := uniseg.StringWidth(rightText)
	putString(t.screen, width-rightWidth, y, rightWidth, rightText, styleStatus)

	left, style := v.Message, styleStatus
	if v.Bad {
		style = styleBad
	}
	if v.Prompting {
		left, style = ":"+v.Prompt, styleStatus
	}
	putString(t.screen, 0, y, width-rightWidth-1, left, style)
	if v.Prompting {
		t.screen.ShowCursor(min(uniseg.StringWidth(left), width-1), y)
	} else {
		t.screen.HideCursor()
	}
}

func entryStyle(e *fsobject.FileEntry) tcell.Style {
	switch {
	case e.Broken:
		return styleBroken
	case e.IsDir:
		return styleDir
	case e.IsSymlink:
		return styleLink
	default:
		return styleFile
	}
}

// putString writes s from (x, y), clipped to max columns.
func putString(s tcell.Screen, x, y, max int, text string, style tcell.Style) int {
	col := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		runes := gr.Runes()
		w := gr.Width()
		if w == 0 {
			continue
		}
		if col+w > max {
			break
		}
		s.SetContent(x+col, y, runes[0], runes[1:], style)
		col += w
	}
	return col
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func convertEvent(ev tcell.Event) (Input, bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		k := convertKey(e.Key())
		if k == KeyNone {
			return Input{}, false
		}
		in := Input{Type: InputKey, Key: k}
		if k == KeyRune {
			in.Rune = e.Rune()
		}
		return in, true
	case *tcell.EventResize:
		w, h := e.Size()
		return Input{Type: InputResize, Width: w, Height: h}, true
	default:
		return Input{}, false
	}
}

// convertKey converts tcell key to our Key type.
func convertKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackspace
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyPgUp:
		return KeyPageUp
	case tcell.KeyPgDn:
		return KeyPageDown
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyLeft:
		return KeyLeft
	case tcell.KeyRight:
		return KeyRight
	case tcell.KeyCtrlC:
		return KeyCtrlC
	default:
		return KeyNone
	}
}
