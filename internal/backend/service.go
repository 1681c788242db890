package backend

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"
	"unicode"

	"codeberg.org/snonux/clozerecall/internal/audio"
	"codeberg.org/snonux/clozerecall/internal/store"
	"codeberg.org/snonux/clozerecall/internal/task"
	"github.com/google/uuid"
)

const (
	// EasyThreshold is the long-term memory above which a word is
	// reviewed in every sentence that contains it.
	EasyThreshold = 0.75

	minDecayRate = 0.1
	maxDecayRate = 0.5
	halfTimeDays = 4.0
)

// Store is the persistence the service needs.
type Store interface {
	Words(ctx context.Context) ([]store.Word, error)
	UpdateWord(ctx context.Context, w store.Word) error
	DeleteWord(ctx context.Context, id int) error
	SentencesContaining(ctx context.Context, word string) ([]store.Sentence, error)
	Translations(ctx context.Context, sentenceID int) ([]string, error)
	RecordReviews(ctx context.Context, sessionID string, reviews []store.Review) error
	Summary(ctx context.Context) (store.ReviewSummary, error)
}

// Translator supplies a translation for sentences that have none.
type Translator interface {
	Translate(ctx context.Context, sentenceID int, sentence string) (string, error)
}

// WeightFactors scale a word's weight after a review.
type WeightFactors struct {
	Succeeded float64
	Failed    float64
}

// DefaultWeightFactors returns the factors used unless configured.
func DefaultWeightFactors() WeightFactors {
	return WeightFactors{Succeeded: 0.8, Failed: 2.0}
}

// Options configure a Service. Zero values select defaults.
type Options struct {
	Factors    WeightFactors
	Provider   audio.Provider // nil disables audio
	Translator Translator     // nil disables translation
	Logger     *log.Logger
	Rand       *rand.Rand
	Now        func() time.Time
	SessionID  string
}

// Service is the backend task service of a drill session.
type Service struct {
	store      Store
	factors    WeightFactors
	provider   audio.Provider
	translator Translator
	logger     *log.Logger
	now        func() time.Time
	sessionID  string

	mu     sync.Mutex
	rng    *rand.Rand
	words  []store.Word
	byWord map[string]int // word text to index in words
	loaded bool

	audioMu     sync.Mutex
	audioCancel context.CancelFunc
	audioSeq    uint64
}

// New creates a Service over st.
func New(st Store, opts Options) *Service {
	if opts.Factors == (WeightFactors{}) {
		opts.Factors = DefaultWeightFactors()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	return &Service{
		store:      st,
		factors:    opts.Factors,
		provider:   opts.Provider,
		translator: opts.Translator,
		logger:     opts.Logger,
		now:        opts.Now,
		sessionID:  opts.SessionID,
		rng:        opts.Rand,
	}
}

// SessionID identifies the reviews recorded by this service.
func (s *Service) SessionID() string {
	return s.sessionID
}

// NextTask picks a word by weight and builds a task from a random sentence
// containing it. Words that occur in no sentence are deleted.
func (s *Service) NextTask(ctx context.Context) (task.LearningTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return task.LearningTask{}, err
	}

	for {
		if len(s.words) == 0 {
			return task.LearningTask{}, store.ErrNoWords
		}
		if err := ctx.Err(); err != nil {
			return task.LearningTask{}, err
		}

		picked := s.pickWordLocked()
		word := s.words[picked]

		sentences, err := s.store.SentencesContaining(ctx, word.Word)
		if err != nil {
			return task.LearningTask{}, fmt.Errorf("failed to find sentences for %q: %w", word.Word, err)
		}
		if len(sentences) == 0 {
			s.logger.Printf("Removing word %q, no sentence contains it", word.Word)
			if err := s.store.DeleteWord(ctx, word.ID); err != nil {
				return task.LearningTask{}, fmt.Errorf("failed to remove word %q: %w", word.Word, err)
			}
			s.removeWordLocked(picked)
			continue
		}

		sentence := sentences[s.rng.IntN(len(sentences))]
		t := task.LearningTask{
			SentenceID:  sentence.ID,
			Sentence:    sentence.Original,
			ReviewWords: s.reviewWordsLocked(sentence, picked),
		}

		t.Translations, err = s.translations(ctx, sentence)
		if err != nil {
			return task.LearningTask{}, err
		}
		return t, nil
	}
}

func (s *Service) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	words, err := s.store.Words(ctx)
	if err != nil {
		return fmt.Errorf("failed to load words: %w", err)
	}
	s.words = words
	s.reindexLocked()
	s.loaded = true
	return nil
}

func (s *Service) reindexLocked() {
	s.byWord = make(map[string]int, len(s.words))
	for i, w := range s.words {
		s.byWord[w.Word] = i
	}
}

func (s *Service) removeWordLocked(i int) {
	s.words = append(s.words[:i], s.words[i+1:]...)
	s.reindexLocked()
}

// pickWordLocked samples a word index proportionally to its weight.
func (s *Service) pickWordLocked() int {
	total := 0.0
	for _, w := range s.words {
		total += math.Max(w.Weight, 0)
	}
	if total <= 0 {
		return s.rng.IntN(len(s.words))
	}

	r := s.rng.Float64() * total
	for i, w := range s.words {
		r -= math.Max(w.Weight, 0)
		if r < 0 {
			return i
		}
	}
	return len(s.words) - 1
}

// reviewWordsLocked returns every occurrence of the picked word and of every
// easy word, ordered by position.
func (s *Service) reviewWordsLocked(sentence store.Sentence, picked int) []task.TaskWord {
	original := tokenize(sentence.Original)
	lower := tokenize(sentence.Lowercase)

	var words []task.TaskWord
	for i, tok := range lower {
		if i >= len(original) {
			break
		}
		idx, ok := s.byWord[tok.text]
		if !ok {
			continue
		}
		if idx != picked && s.words[idx].LongTermMemory <= EasyThreshold {
			continue
		}
		words = append(words, task.TaskWord{
			ID:       s.words[idx].ID,
			Word:     original[i].text,
			Position: original[i].pos,
		})
	}

	sort.Slice(words, func(a, b int) bool { return words[a].Position < words[b].Position })
	return words
}

func (s *Service) translations(ctx context.Context, sentence store.Sentence) ([]string, error) {
	texts, err := s.store.Translations(ctx, sentence.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations of sentence %d: %w", sentence.ID, err)
	}
	if len(texts) > 0 || s.translator == nil {
		return texts, nil
	}

	text, err := s.translator.Translate(ctx, sentence.ID, sentence.Original)
	if err != nil {
		s.logger.Printf("Cannot translate sentence %d: %v", sentence.ID, err)
		return nil, nil
	}
	return []string{text}, nil
}

type token struct {
	text string
	pos  int // rune offset
}

// tokenize splits s on white space, recording rune offsets.
func tokenize(s string) []token {
	var tokens []token
	start := -1
	var startRune, runeIndex int
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: s[start:i], pos: startRune})
				start = -1
			}
		} else if start < 0 {
			start = i
			startRune = runeIndex
		}
		runeIndex++
	}
	if start >= 0 {
		tokens = append(tokens, token{text: s[start:], pos: startRune})
	}
	return tokens
}

// FinishTask applies the review results of one submission.
func (s *Service) FinishTask(ctx context.Context, finished task.FinishedTask) error {
	if finished.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	now := s.now()
	reviews := make([]store.Review, 0, len(finished.WordReviews))
	for _, r := range finished.WordReviews {
		idx := s.indexOfLocked(r.WordID)
		if idx < 0 {
			s.logger.Printf("Ignoring review of unknown word %d", r.WordID)
			continue
		}

		succeeded := r.Result == task.Succeeded
		w := UpdateWord(s.words[idx], succeeded, s.factors, now)
		if err := s.store.UpdateWord(ctx, w); err != nil {
			return err
		}
		s.words[idx] = w
		s.logger.Printf("Long term memory for word %s: %.3f", w.Word, w.LongTermMemory)

		reviews = append(reviews, store.Review{WordID: r.WordID, Succeeded: succeeded, ReviewedAt: now})
	}

	if err := s.store.RecordReviews(ctx, s.sessionID, reviews); err != nil {
		return fmt.Errorf("failed to record reviews: %w", err)
	}
	return nil
}

func (s *Service) indexOfLocked(wordID int) int {
	for i, w := range s.words {
		if w.ID == wordID {
			return i
		}
	}
	return -1
}

// UpdateWord returns w after one review at now. The weight is scaled by the
// matching factor. Long-term memory moves toward 1 on success and toward 0
// on failure, further the longer the word went unreviewed.
func UpdateWord(w store.Word, succeeded bool, factors WeightFactors, now time.Time) store.Word {
	target := 0.0
	if succeeded {
		w.Weight *= factors.Succeeded
		target = 1
	} else {
		w.Weight *= factors.Failed
	}

	days := now.Sub(w.LastReview).Hours() / 24
	if w.LastReview.IsZero() {
		days = math.Inf(1)
	}
	decay := maxDecayRate - (maxDecayRate-minDecayRate)*math.Exp2(-days/halfTimeDays)

	w.LongTermMemory += (target - w.LongTermMemory) * decay
	w.LastReview = now
	return w
}

// WordStat is a word's review state for statistics output.
type WordStat struct {
	Word           string
	Weight         float64
	LongTermMemory float64
}

// Stats summarises the learning state.
type Stats struct {
	Words     []WordStat // ordered by descending weight
	MaxWeight float64
	Reviews   store.ReviewSummary
}

// Stats returns the current word weights and review totals.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, w := range s.words {
		st.Words = append(st.Words, WordStat{Word: w.Word, Weight: w.Weight, LongTermMemory: w.LongTermMemory})
		st.MaxWeight = math.Max(st.MaxWeight, w.Weight)
	}
	sort.SliceStable(st.Words, func(a, b int) bool { return st.Words[a].Weight > st.Words[b].Weight })

	summary, err := s.store.Summary(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to summarise reviews: %w", err)
	}
	st.Reviews = summary
	return st, nil
}
