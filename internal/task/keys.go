package task

// Key is a keystroke released inside a blank.
type Key int

const (
	KeyChar Key = iota
	KeyErase
	KeyRight
)

// KeyUp moves focus in response to a keystroke in blank index. Typing the
// last letter of a blank that is not the last one jumps to the next
// editable blank; erasing in an empty blank other than the first jumps back
// to the previous editable blank. Completed blanks are skipped. Enter never
// reaches KeyUp; the caller submits or continues on it.
func KeyUp(s State, index int, key Key) State {
	if s.Phase != AwaitingInput || index < 0 || index >= len(s.Inputs) {
		return s
	}

	target := NoFocus
	switch key {
	case KeyErase:
		if s.Inputs[index].Text == "" && index > 0 {
			target = s.previousEditable(index - 1)
		}
	case KeyChar:
		if s.Inputs[index].Full() && index < len(s.Inputs)-1 {
			target = s.nextEditable(index + 1)
		}
	}

	if target == NoFocus {
		return s
	}

	next := s
	next.Focus = target
	return next
}

// Focused returns the blank that currently has focus.
func (s State) Focused() (WordInput, bool) {
	if s.Focus < 0 || s.Focus >= len(s.Inputs) {
		return WordInput{}, false
	}
	return s.Inputs[s.Focus], true
}
