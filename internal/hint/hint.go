package hint

import "strings"

// Hint is a target word together with the letters a wrong attempt got right.
type Hint struct {
	target  []rune
	matched []bool
}

// Compute matches the letters of attempt against target, left to right.
// Each attempt letter is looked up in target starting at the cursor left by
// the previous match; a hit marks that target letter and moves the cursor
// past it, a miss leaves the cursor where it is. Only the first len(target)
// letters of attempt are considered.
func Compute(target, attempt string) Hint {
	t := []rune(target)
	matched := make([]bool, len(t))

	pos := 0
	considered := 0
	for _, c := range attempt {
		if considered == len(t) {
			break
		}
		considered++

		for j := pos; j < len(t); j++ {
			if t[j] == c {
				matched[j] = true
				pos = j + 1
				break
			}
		}
	}

	return Hint{target: t, matched: matched}
}

// Target returns the word the hint was computed for.
func (h Hint) Target() string {
	return string(h.target)
}

// IsZero reports whether no hint has been computed.
func (h Hint) IsZero() bool {
	return h.target == nil
}

// IsMatched reports whether the rune at index i of the target was matched.
func (h Hint) IsMatched(i int) bool {
	return i >= 0 && i < len(h.matched) && h.matched[i]
}

// Positions returns the matched rune indices in ascending order.
func (h Hint) Positions() []int {
	var positions []int
	for i, m := range h.matched {
		if m {
			positions = append(positions, i)
		}
	}
	return positions
}

// Render returns the target with every matched letter passed through mark.
// Plain letters are copied unchanged.
func (h Hint) Render(mark func(letter string) string) string {
	var b strings.Builder
	for i, r := range h.target {
		if h.matched[i] {
			b.WriteString(mark(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Markup wraps matched letters in open and close.
func (h Hint) Markup(open, close string) string {
	return h.Render(func(letter string) string {
		return open + letter + close
	})
}

// String renders the hint with matched letters in square brackets.
func (h Hint) String() string {
	return h.Markup("[", "]")
}
