package task

import (
	"errors"
	"reflect"
	"testing"
)

func storeTask() LearningTask {
	return LearningTask{
		SentenceID:   7,
		Sentence:     "I go to the store.",
		Translations: []string{"Jag går till affären."},
		ReviewWords: []TaskWord{
			{ID: 1, Word: "go", Position: 2},
			{ID: 2, Word: "store", Position: 12},
		},
	}
}

func typed(s State, texts ...string) State {
	for i, text := range texts {
		s = SetText(s, i, text)
	}
	return s
}

func TestLoad(t *testing.T) {
	s := Load(storeTask())

	if s.Phase != AwaitingInput {
		t.Errorf("Expected phase AwaitingInput, got %s", s.Phase)
	}
	if s.Prefix != "I " {
		t.Errorf("Expected prefix 'I ', got %q", s.Prefix)
	}
	if len(s.Inputs) != 2 {
		t.Fatalf("Expected 2 inputs, got %d", len(s.Inputs))
	}
	if s.Inputs[0].TextAfter != " to the " {
		t.Errorf("Expected text after first word ' to the ', got %q", s.Inputs[0].TextAfter)
	}
	if s.Inputs[1].TextAfter != "." {
		t.Errorf("Expected text after last word '.', got %q", s.Inputs[1].TextAfter)
	}
	if s.Inputs[1].Index != 1 || s.Inputs[1].WordID != 2 {
		t.Errorf("Unexpected second input: %+v", s.Inputs[1])
	}
	if s.Inputs[1].Width != 5 {
		t.Errorf("Expected width 5, got %d", s.Inputs[1].Width)
	}
	if s.Focus != 0 {
		t.Errorf("Expected focus 0, got %d", s.Focus)
	}
}

func TestLoadRuneOffsets(t *testing.T) {
	s := Load(LearningTask{
		Sentence:    "Аз ям ябълка днес",
		ReviewWords: []TaskWord{{ID: 3, Word: "ябълка", Position: 6}},
	})

	if s.Invalid != nil {
		t.Fatalf("Unexpected invalid task: %v", s.Invalid)
	}
	if s.Prefix != "Аз ям " {
		t.Errorf("Expected prefix 'Аз ям ', got %q", s.Prefix)
	}
	if s.Inputs[0].TextAfter != " днес" {
		t.Errorf("Expected text after ' днес', got %q", s.Inputs[0].TextAfter)
	}
	if s.Inputs[0].MaxLength() != 6 {
		t.Errorf("Expected max length 6, got %d", s.Inputs[0].MaxLength())
	}
}

func TestSubmitAllCorrect(t *testing.T) {
	s := typed(Load(storeTask()), "go", "store")

	next, finished := Submit(s)

	if next.Phase != ShowingFeedback {
		t.Errorf("Expected ShowingFeedback, got %s", next.Phase)
	}
	want := []FinishedWordReview{
		{WordID: 1, Result: Succeeded},
		{WordID: 2, Result: Succeeded},
	}
	if !reflect.DeepEqual(finished.WordReviews, want) {
		t.Errorf("WordReviews = %v, want %v", finished.WordReviews, want)
	}
	if next.Focus != NoFocus {
		t.Errorf("Expected no focus, got %d", next.Focus)
	}
}

func TestSubmitWrongWord(t *testing.T) {
	s := typed(Load(storeTask()), "went", "store")

	next, finished := Submit(s)

	if next.Phase != AwaitingInput {
		t.Errorf("Expected AwaitingInput, got %s", next.Phase)
	}
	want := []FinishedWordReview{
		{WordID: 1, Result: Failed},
		{WordID: 2, Result: Succeeded},
	}
	if !reflect.DeepEqual(finished.WordReviews, want) {
		t.Errorf("WordReviews = %v, want %v", finished.WordReviews, want)
	}

	first := next.Inputs[0]
	if first.Complete || first.Text != "" {
		t.Errorf("Expected reopened empty first word, got %+v", first)
	}
	if first.Hint.Target() != "go" {
		t.Errorf("Expected hint for 'go', got %q", first.Hint.Target())
	}
	if !next.Inputs[1].Complete {
		t.Error("Expected second word to be complete")
	}
	if next.Focus != 0 {
		t.Errorf("Expected focus on first word, got %d", next.Focus)
	}

	// Original state is untouched.
	if s.Inputs[0].Text != "went" || s.Inputs[1].Complete {
		t.Error("Submit modified its input state")
	}
}

func TestSubmitIsCaseSensitive(t *testing.T) {
	s := typed(Load(storeTask()), "Go", "store")

	_, finished := Submit(s)
	if finished.WordReviews[0].Result != Failed {
		t.Errorf("Expected 'Go' to fail against 'go', got %s", finished.WordReviews[0].Result)
	}
}

func TestSubmitSkipsCompletedWords(t *testing.T) {
	s := typed(Load(storeTask()), "went", "store")
	s, _ = Submit(s)

	again, finished := Submit(s)
	want := []FinishedWordReview{{WordID: 1, Result: Failed}}
	if !reflect.DeepEqual(finished.WordReviews, want) {
		t.Errorf("WordReviews = %v, want %v", finished.WordReviews, want)
	}
	if again.Phase != AwaitingInput {
		t.Errorf("Expected AwaitingInput, got %s", again.Phase)
	}

	again = SetText(again, 0, "go")
	done, finished := Submit(again)
	if done.Phase != ShowingFeedback {
		t.Errorf("Expected ShowingFeedback, got %s", done.Phase)
	}
	if len(finished.WordReviews) != 1 || finished.WordReviews[0].Result != Succeeded {
		t.Errorf("Unexpected reviews: %v", finished.WordReviews)
	}
}

func TestSubmitRepeatedWord(t *testing.T) {
	repeated := LearningTask{
		SentenceID: 9,
		Sentence:   "the cat saw the dog",
		ReviewWords: []TaskWord{
			{ID: 7, Word: "the", Position: 0},
			{ID: 5, Word: "cat", Position: 4},
			{ID: 7, Word: "the", Position: 12},
		},
	}

	tests := []struct {
		name      string
		texts     []string
		want      []FinishedWordReview
		wantPhase Phase
	}{
		{
			name:  "both occurrences correct",
			texts: []string{"the", "cat", "the"},
			want: []FinishedWordReview{
				{WordID: 7, Result: Succeeded},
				{WordID: 5, Result: Succeeded},
			},
			wantPhase: ShowingFeedback,
		},
		{
			name:  "second occurrence wrong",
			texts: []string{"the", "cat", "a"},
			want: []FinishedWordReview{
				{WordID: 7, Result: Failed},
				{WordID: 5, Result: Succeeded},
			},
			wantPhase: AwaitingInput,
		},
		{
			name:  "first occurrence wrong",
			texts: []string{"teh", "cat", "the"},
			want: []FinishedWordReview{
				{WordID: 7, Result: Failed},
				{WordID: 5, Result: Succeeded},
			},
			wantPhase: AwaitingInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Load(repeated)
			if s.Invalid != nil {
				t.Fatalf("Unexpected invalid task: %v", s.Invalid)
			}

			next, finished := Submit(typed(s, tt.texts...))
			if !reflect.DeepEqual(finished.WordReviews, tt.want) {
				t.Errorf("WordReviews = %v, want %v", finished.WordReviews, tt.want)
			}
			if next.Phase != tt.wantPhase {
				t.Errorf("Expected phase %s, got %s", tt.wantPhase, next.Phase)
			}
		})
	}
}

func TestSubmitCompletionInvariant(t *testing.T) {
	attempts := [][]string{
		{"go", "store"},
		{"go", "stor"},
		{"", ""},
		{"og", "store"},
	}
	for _, a := range attempts {
		next, _ := Submit(typed(Load(storeTask()), a...))
		if (next.Phase == ShowingFeedback) != next.AllComplete() {
			t.Errorf("attempt %v: phase %s but AllComplete=%v", a, next.Phase, next.AllComplete())
		}
	}
}

func TestSubmitMalformedTask(t *testing.T) {
	tests := []struct {
		name string
		task LearningTask
		err  error
	}{
		{
			name: "no review words",
			task: LearningTask{Sentence: "Hello"},
			err:  ErrNoReviewWords,
		},
		{
			name: "non monotonic positions",
			task: LearningTask{Sentence: "I go to the store.", ReviewWords: []TaskWord{
				{ID: 2, Word: "store", Position: 12},
				{ID: 1, Word: "go", Position: 2},
			}},
			err: ErrMalformedTask,
		},
		{
			name: "overlapping words",
			task: LearningTask{Sentence: "I go to the store.", ReviewWords: []TaskWord{
				{ID: 1, Word: "go to", Position: 2},
				{ID: 2, Word: "to", Position: 5},
			}},
			err: ErrMalformedTask,
		},
		{
			name: "word past end",
			task: LearningTask{Sentence: "I go", ReviewWords: []TaskWord{{ID: 1, Word: "gone", Position: 2}}},
			err:  ErrMalformedTask,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Load(tt.task)
			if !errors.Is(s.Invalid, tt.err) {
				t.Errorf("Invalid = %v, want %v", s.Invalid, tt.err)
			}
			next, finished := Submit(s)
			if !finished.Empty() {
				t.Errorf("Expected no reviews, got %v", finished.WordReviews)
			}
			if next.Phase != AwaitingInput {
				t.Errorf("Expected AwaitingInput, got %s", next.Phase)
			}
		})
	}
}

func TestSubmitInFeedbackIsNoop(t *testing.T) {
	s, _ := Submit(typed(Load(storeTask()), "go", "store"))
	next, finished := Submit(s)
	if !finished.Empty() || next.Phase != ShowingFeedback {
		t.Errorf("Expected no-op in feedback, got %v / %s", finished.WordReviews, next.Phase)
	}
}

func TestSetText(t *testing.T) {
	s := Load(storeTask())

	s = SetText(s, 0, "gone")
	if s.Inputs[0].Text != "go" {
		t.Errorf("Expected text cut to 'go', got %q", s.Inputs[0].Text)
	}

	s = SetText(s, 5, "x")
	if len(s.Inputs) != 2 {
		t.Error("SetText with bad index changed inputs")
	}

	s = SetText(s, 1, "store")
	s, _ = Submit(SetText(s, 0, "no"))
	s = SetText(s, 1, "other")
	if s.Inputs[1].Text != "store" {
		t.Errorf("Completed word text changed to %q", s.Inputs[1].Text)
	}
}

func TestFirstEditable(t *testing.T) {
	s := Load(LearningTask{
		Sentence: "a b c d",
		ReviewWords: []TaskWord{
			{ID: 1, Word: "a", Position: 0},
			{ID: 2, Word: "b", Position: 2},
			{ID: 3, Word: "c", Position: 4},
			{ID: 4, Word: "d", Position: 6},
		},
	})
	s.Inputs[2].Complete = true
	s.Inputs[3].Complete = true

	if got := s.FirstEditable(2); got != 1 {
		t.Errorf("FirstEditable(2) = %d, want 1", got)
	}
	if got := s.FirstEditable(0); got != 0 {
		t.Errorf("FirstEditable(0) = %d, want 0", got)
	}

	for i := range s.Inputs {
		s.Inputs[i].Complete = true
	}
	if got := s.FirstEditable(0); got != NoFocus {
		t.Errorf("FirstEditable(0) = %d, want NoFocus", got)
	}
}
