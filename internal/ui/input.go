package ui

// Key identifies a non-character key.
type Key uint16

// Keys rover reacts to.
const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyCtrlC
)

// InputType classifies an Input.
type InputType uint8

const (
	// InputKey is a key press.
	InputKey InputType = iota
	// InputResize reports a new terminal size.
	InputResize
)

// Input is one event from the frontend.
type Input struct {
	Type InputType
	Key  Key
	Rune rune

	// Width and Height are set for InputResize.
	Width, Height int
}

// RuneInput returns a key press of r.
func RuneInput(r rune) Input {
	return Input{Type: InputKey, Key: KeyRune, Rune: r}
}

// KeyInput returns a press of k.
func KeyInput(k Key) Input {
	return Input{Type: InputKey, Key: k}
}
