package task

import "codeberg.org/snonux/clozerecall/internal/hint"

// Phase is the state of the current exercise.
type Phase int

const (
	AwaitingInput Phase = iota
	ShowingFeedback
)

func (p Phase) String() string {
	switch p {
	case AwaitingInput:
		return "AwaitingInput"
	case ShowingFeedback:
		return "ShowingFeedback"
	default:
		return "Unknown"
	}
}

// NoFocus is the Focus value when no blank can take input.
const NoFocus = -1

// State is the exercise as seen by the state machine. Values are treated as
// immutable: transitions copy Inputs before changing them.
type State struct {
	Phase  Phase
	Task   *LearningTask
	Prefix string // sentence text before the first blank
	Inputs []WordInput
	Focus  int
	// Invalid is set when the loaded task failed validation. Such a task
	// has no inputs and Submit does nothing.
	Invalid error
}

// Load builds the initial state for a freshly fetched task.
func Load(t LearningTask) State {
	s := State{
		Phase: AwaitingInput,
		Task:  &t,
		Focus: NoFocus,
	}

	if err := t.Validate(); err != nil {
		s.Invalid = err
		s.Prefix = t.Sentence
		return s
	}

	s.Prefix, s.Inputs = buildInputs(t)
	s.Focus = 0
	return s
}

// HasTask reports whether a task is loaded.
func (s State) HasTask() bool {
	return s.Task != nil
}

// AllComplete reports whether every blank has been answered correctly.
// A state without blanks is never complete.
func (s State) AllComplete() bool {
	if len(s.Inputs) == 0 {
		return false
	}
	for _, in := range s.Inputs {
		if !in.Complete {
			return false
		}
	}
	return true
}

func (s State) cloneInputs() []WordInput {
	inputs := make([]WordInput, len(s.Inputs))
	copy(inputs, s.Inputs)
	return inputs
}

// Submit checks every incomplete blank. Correct ones are completed; wrong
// ones get a hint and their text cleared. The returned batch holds one
// review per checked word in blank order; a word blanked more than once
// fails when any of its blanks is wrong. When all blanks are complete the
// state moves to ShowingFeedback, otherwise focus goes to the first
// editable blank.
func Submit(s State) (State, FinishedTask) {
	var finished FinishedTask
	if s.Phase != AwaitingInput || len(s.Inputs) == 0 {
		return s, finished
	}

	inputs := s.cloneInputs()
	for i := range inputs {
		in := &inputs[i]
		if in.Complete {
			continue
		}

		if in.Text == in.Target {
			in.Complete = true
			finished.WordReviews = addReview(finished.WordReviews, in.WordID, Succeeded)
			continue
		}

		finished.WordReviews = addReview(finished.WordReviews, in.WordID, Failed)
		in.Hint = hint.Compute(in.Target, in.Text)
		in.Text = ""
	}

	next := s
	next.Inputs = inputs
	if next.AllComplete() {
		next.Phase = ShowingFeedback
		next.Focus = NoFocus
	} else {
		next.Focus = next.FirstEditable(0)
	}

	return next, finished
}

// addReview records result for wordID, merging with an earlier review of
// the same word. Failed wins over Succeeded.
func addReview(reviews []FinishedWordReview, wordID int, result ReviewResult) []FinishedWordReview {
	for i := range reviews {
		if reviews[i].WordID == wordID {
			if result == Failed {
				reviews[i].Result = Failed
			}
			return reviews
		}
	}
	return append(reviews, FinishedWordReview{WordID: wordID, Result: result})
}

// SetText replaces the typed text of blank index. Completed blanks and out
// of range indices are left alone. Text is cut to the blank's length.
func SetText(s State, index int, text string) State {
	if s.Phase != AwaitingInput || index < 0 || index >= len(s.Inputs) || s.Inputs[index].Complete {
		return s
	}

	inputs := s.cloneInputs()
	if r := []rune(text); len(r) > inputs[index].MaxLength() {
		text = string(r[:inputs[index].MaxLength()])
	}
	inputs[index].Text = text

	next := s
	next.Inputs = inputs
	return next
}

// FirstEditable returns the first editable blank at or after from, looking
// backwards from from when none follows. NoFocus means every blank is done.
func (s State) FirstEditable(from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(s.Inputs); i++ {
		if s.Inputs[i].Editable() {
			return i
		}
	}
	for i := min(from, len(s.Inputs)) - 1; i >= 0; i-- {
		if s.Inputs[i].Editable() {
			return i
		}
	}
	return NoFocus
}

// nextEditable scans forward only.
func (s State) nextEditable(from int) int {
	for i := from; i >= 0 && i < len(s.Inputs); i++ {
		if s.Inputs[i].Editable() {
			return i
		}
	}
	return NoFocus
}

// previousEditable scans backward only.
func (s State) previousEditable(from int) int {
	for i := min(from, len(s.Inputs)-1); i >= 0; i-- {
		if s.Inputs[i].Editable() {
			return i
		}
	}
	return NoFocus
}
