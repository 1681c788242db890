package task

import (
	"errors"
	"fmt"
)

// TaskWord is a word to be reviewed in a sentence.
type TaskWord struct {
	ID       int    `json:"id"`
	Word     string `json:"word"`
	Position int    `json:"position"` // rune offset into the sentence
}

// LearningTask is one sentence-with-blanks exercise.
type LearningTask struct {
	SentenceID   int        `json:"sentence_id"`
	Sentence     string     `json:"sentence"`
	Translations []string   `json:"translations"`
	ReviewWords  []TaskWord `json:"review_words"`
}

// ReviewResult is the outcome of one word review.
type ReviewResult string

const (
	Succeeded ReviewResult = "Succeeded"
	Failed    ReviewResult = "Failed"
)

// FinishedWordReview reports the outcome for a single review word.
type FinishedWordReview struct {
	WordID int          `json:"word_id"`
	Result ReviewResult `json:"result"`
}

// FinishedTask is the batch of reviews produced by one submission.
type FinishedTask struct {
	WordReviews []FinishedWordReview `json:"word_reviews"`
}

// Empty reports whether the batch holds no reviews.
func (f FinishedTask) Empty() bool {
	return len(f.WordReviews) == 0
}

var (
	ErrNoReviewWords = errors.New("task has no review words")
	ErrMalformedTask = errors.New("malformed task")
)

// Validate checks that review words are inside the sentence, ordered by
// position and do not overlap.
func (t LearningTask) Validate() error {
	if len(t.ReviewWords) == 0 {
		return ErrNoReviewWords
	}

	sentenceLen := len([]rune(t.Sentence))
	end := 0
	for i, w := range t.ReviewWords {
		wordLen := len([]rune(w.Word))
		if wordLen == 0 {
			return fmt.Errorf("%w: review word %d is empty", ErrMalformedTask, i)
		}
		if w.Position < end {
			return fmt.Errorf("%w: review word %d at %d overlaps or precedes offset %d", ErrMalformedTask, i, w.Position, end)
		}
		end = w.Position + wordLen
		if end > sentenceLen {
			return fmt.Errorf("%w: review word %d ends at %d beyond sentence length %d", ErrMalformedTask, i, end, sentenceLen)
		}
	}

	return nil
}
