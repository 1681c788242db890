package task

import (
	"github.com/rivo/uniseg"

	"codeberg.org/snonux/clozerecall/internal/hint"
)

// WordInput is the state of one blank.
type WordInput struct {
	WordID    int
	Target    string
	Text      string
	Hint      hint.Hint
	Complete  bool
	Index     int
	TextAfter string // sentence text up to the next blank or the end
	Width     int    // display cells needed to type Target
}

// MaxLength is the number of runes the blank accepts.
func (w WordInput) MaxLength() int {
	return len([]rune(w.Target))
}

// Full reports whether the typed text fills the blank.
func (w WordInput) Full() bool {
	return len([]rune(w.Text)) >= w.MaxLength()
}

// Editable reports whether the blank still accepts input.
func (w WordInput) Editable() bool {
	return !w.Complete
}

// DisplayWidth returns the number of terminal cells s occupies.
func DisplayWidth(s string) int {
	return uniseg.StringWidth(s)
}

// buildInputs splits the sentence around the review words. It returns the
// text before the first blank and one WordInput per review word.
func buildInputs(t LearningTask) (string, []WordInput) {
	sentence := []rune(t.Sentence)
	words := t.ReviewWords

	prefix := string(sentence[:words[0].Position])
	inputs := make([]WordInput, 0, len(words))
	for i, w := range words {
		start := w.Position + len([]rune(w.Word))
		end := len(sentence)
		if i+1 < len(words) {
			end = words[i+1].Position
		}

		inputs = append(inputs, WordInput{
			WordID:    w.ID,
			Target:    w.Word,
			Index:     i,
			TextAfter: string(sentence[start:end]),
			Width:     DisplayWidth(w.Word),
		})
	}

	return prefix, inputs
}
