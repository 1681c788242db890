package backend

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/clozerecall/internal/store"
	"codeberg.org/snonux/clozerecall/internal/task"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeTranslator struct {
	calls int
	text  string
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, sentenceID int, sentence string) (string, error) {
	f.calls++
	return f.text, f.err
}

func newTestStore(t *testing.T, words []store.Word, sentences []store.Sentence) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if len(words) > 0 {
		if err := st.ReplaceWords(ctx, words); err != nil {
			t.Fatal(err)
		}
	}
	if len(sentences) > 0 {
		if err := st.AddSentences(ctx, sentences); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func newTestService(st Store, opts Options) *Service {
	opts.Rand = rand.New(rand.NewPCG(1, 2))
	opts.Now = func() time.Time { return testNow }
	opts.SessionID = "session-1"
	return New(st, opts)
}

func sentence(id int, text string, translations ...string) store.Sentence {
	s := store.Sentence{ID: id, Original: text, Lowercase: toLower(text)}
	for i, tr := range translations {
		s.Translations = append(s.Translations, store.Translation{ID: id*100 + i, Text: tr})
	}
	return s
}

func toLower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + 'a' - 'A'
		}
	}
	return string(out)
}

func TestNextTaskReviewWords(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{
			{ID: 1, Word: "go", Weight: 1, LongTermMemory: 0.3},
			{ID: 2, Word: "the", Weight: 0, LongTermMemory: 0.8},
			{ID: 3, Word: "to", Weight: 0, LongTermMemory: 0.5},
		},
		[]store.Sentence{sentence(7, "I go to the store.", "Ich gehe zum Laden.")},
	)
	svc := newTestService(st, Options{})

	got, err := svc.NextTask(context.Background())
	if err != nil {
		t.Fatalf("NextTask() error = %v", err)
	}

	if got.SentenceID != 7 || got.Sentence != "I go to the store." {
		t.Errorf("task = %+v", got)
	}
	want := []task.TaskWord{{ID: 1, Word: "go", Position: 2}, {ID: 2, Word: "the", Position: 8}}
	if len(got.ReviewWords) != len(want) {
		t.Fatalf("ReviewWords = %+v, want %+v", got.ReviewWords, want)
	}
	for i := range want {
		if got.ReviewWords[i] != want[i] {
			t.Errorf("ReviewWords[%d] = %+v, want %+v", i, got.ReviewWords[i], want[i])
		}
	}
	if len(got.Translations) != 1 || got.Translations[0] != "Ich gehe zum Laden." {
		t.Errorf("Translations = %v", got.Translations)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("task does not validate: %v", err)
	}
}

func TestNextTaskKeepsOriginalCase(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{{ID: 1, Word: "äpfel", Weight: 1, LongTermMemory: 0.3}},
		[]store.Sentence{{ID: 1, Original: "Grüne Äpfel sind gut", Lowercase: "grüne äpfel sind gut"}},
	)
	svc := newTestService(st, Options{})

	got, err := svc.NextTask(context.Background())
	if err != nil {
		t.Fatalf("NextTask() error = %v", err)
	}
	if len(got.ReviewWords) != 1 {
		t.Fatalf("ReviewWords = %+v", got.ReviewWords)
	}
	if w := got.ReviewWords[0]; w.Word != "Äpfel" || w.Position != 6 {
		t.Errorf("review word = %+v, want Äpfel at rune 6", w)
	}
}

func TestNextTaskRemovesWordsWithoutSentence(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{
			{ID: 1, Word: "zzz", Weight: 1, LongTermMemory: 0.3},
			{ID: 2, Word: "go", Weight: 1e-12, LongTermMemory: 0.3},
		},
		[]store.Sentence{sentence(1, "we go")},
	)
	svc := newTestService(st, Options{})

	got, err := svc.NextTask(context.Background())
	if err != nil {
		t.Fatalf("NextTask() error = %v", err)
	}
	if len(got.ReviewWords) != 1 || got.ReviewWords[0].Word != "go" {
		t.Errorf("ReviewWords = %+v", got.ReviewWords)
	}

	words, _ := st.Words(context.Background())
	if len(words) != 1 || words[0].Word != "go" {
		t.Errorf("remaining words = %+v, want only go", words)
	}
}

func TestNextTaskNoWords(t *testing.T) {
	tests := []struct {
		name  string
		words []store.Word
	}{
		{"empty store", nil},
		{"no word in any sentence", []store.Word{{ID: 1, Word: "zzz", Weight: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, tt.words, []store.Sentence{sentence(1, "we go")})
			svc := newTestService(st, Options{})

			if _, err := svc.NextTask(context.Background()); !errors.Is(err, store.ErrNoWords) {
				t.Errorf("NextTask() error = %v, want ErrNoWords", err)
			}
		})
	}
}

func TestNextTaskTranslation(t *testing.T) {
	tests := []struct {
		name         string
		translations []string
		translator   *fakeTranslator
		want         []string
		wantCalls    int
	}{
		{"stored translation wins", []string{"stored"}, &fakeTranslator{text: "machine"}, []string{"stored"}, 0},
		{"translator fills gap", nil, &fakeTranslator{text: "machine"}, []string{"machine"}, 1},
		{"translator failure is tolerated", nil, &fakeTranslator{err: errors.New("offline")}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t,
				[]store.Word{{ID: 1, Word: "go", Weight: 1, LongTermMemory: 0.3}},
				[]store.Sentence{sentence(1, "we go", tt.translations...)},
			)
			svc := newTestService(st, Options{Translator: tt.translator})

			got, err := svc.NextTask(context.Background())
			if err != nil {
				t.Fatalf("NextTask() error = %v", err)
			}
			if len(got.Translations) != len(tt.want) || (len(tt.want) > 0 && got.Translations[0] != tt.want[0]) {
				t.Errorf("Translations = %v, want %v", got.Translations, tt.want)
			}
			if tt.translator.calls != tt.wantCalls {
				t.Errorf("translator called %d times, want %d", tt.translator.calls, tt.wantCalls)
			}
		})
	}
}

func TestPickWordFollowsWeights(t *testing.T) {
	svc := newTestService(nil, Options{})
	svc.words = []store.Word{{Word: "a", Weight: 3}, {Word: "b", Weight: 1}, {Word: "c", Weight: 0}}

	counts := make([]int, 3)
	for i := 0; i < 4000; i++ {
		counts[svc.pickWordLocked()]++
	}
	if counts[2] != 0 {
		t.Errorf("zero weight word picked %d times", counts[2])
	}
	ratio := float64(counts[0]) / float64(counts[1])
	if ratio < 2.5 || ratio > 3.5 {
		t.Errorf("pick ratio a:b = %.2f, want about 3", ratio)
	}
}

func TestUpdateWord(t *testing.T) {
	factors := DefaultWeightFactors()
	tests := []struct {
		name       string
		lastReview time.Time
		succeeded  bool
		wantWeight float64
		wantMemory float64
	}{
		{"first review succeeded", time.Unix(0, 0), true, 0.8, 0.65},
		{"first review failed", time.Unix(0, 0), false, 2.0, 0.15},
		{"never reviewed", time.Time{}, true, 0.8, 0.65},
		{"reviewed one half time ago", testNow.Add(-4 * 24 * time.Hour), true, 0.8, 0.3 + 0.7*0.3},
		{"reviewed just now", testNow, false, 2.0, 0.3 - 0.3*0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := store.Word{Word: "go", Weight: 1, LongTermMemory: 0.3, LastReview: tt.lastReview}
			got := UpdateWord(w, tt.succeeded, factors, testNow)

			if math.Abs(got.Weight-tt.wantWeight) > 1e-9 {
				t.Errorf("Weight = %v, want %v", got.Weight, tt.wantWeight)
			}
			if math.Abs(got.LongTermMemory-tt.wantMemory) > 1e-9 {
				t.Errorf("LongTermMemory = %v, want %v", got.LongTermMemory, tt.wantMemory)
			}
			if !got.LastReview.Equal(testNow) {
				t.Errorf("LastReview = %v", got.LastReview)
			}
		})
	}
}

func TestFinishTask(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{
			{ID: 1, Word: "go", Weight: 1, LongTermMemory: 0.3},
			{ID: 2, Word: "store", Weight: 1, LongTermMemory: 0.3},
		},
		nil,
	)
	svc := newTestService(st, Options{Factors: WeightFactors{Succeeded: 0.5, Failed: 3}})
	ctx := context.Background()

	err := svc.FinishTask(ctx, task.FinishedTask{WordReviews: []task.FinishedWordReview{
		{WordID: 1, Result: task.Succeeded},
		{WordID: 2, Result: task.Failed},
		{WordID: 99, Result: task.Failed},
	}})
	if err != nil {
		t.Fatalf("FinishTask() error = %v", err)
	}

	words, _ := st.Words(ctx)
	if words[0].Weight != 0.5 || words[1].Weight != 3 {
		t.Errorf("weights = %v, %v", words[0].Weight, words[1].Weight)
	}
	if !words[0].LastReview.Equal(testNow) {
		t.Errorf("LastReview = %v", words[0].LastReview)
	}

	summary, _ := st.Summary(ctx)
	want := store.ReviewSummary{Sessions: 1, Reviews: 2, Succeeded: 1, Failed: 1}
	if summary != want {
		t.Errorf("Summary() = %+v, want %+v", summary, want)
	}

	if err := svc.FinishTask(ctx, task.FinishedTask{}); err != nil {
		t.Errorf("empty FinishTask() error = %v", err)
	}
}

func TestFinishTaskRepeatedWord(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{{ID: 1, Word: "the", Weight: 1, LongTermMemory: 0.3}},
		[]store.Sentence{sentence(4, "the cat saw the dog")},
	)
	svc := newTestService(st, Options{Factors: WeightFactors{Succeeded: 0.5, Failed: 3}})
	ctx := context.Background()

	lt, err := svc.NextTask(ctx)
	if err != nil {
		t.Fatalf("NextTask() error = %v", err)
	}
	want := []task.TaskWord{{ID: 1, Word: "the", Position: 0}, {ID: 1, Word: "the", Position: 12}}
	if len(lt.ReviewWords) != len(want) {
		t.Fatalf("ReviewWords = %+v, want %+v", lt.ReviewWords, want)
	}
	for i := range want {
		if lt.ReviewWords[i] != want[i] {
			t.Errorf("ReviewWords[%d] = %+v, want %+v", i, lt.ReviewWords[i], want[i])
		}
	}

	s := task.Load(lt)
	s = task.SetText(s, 0, "the")
	s = task.SetText(s, 1, "the")
	_, finished := task.Submit(s)
	if len(finished.WordReviews) != 1 {
		t.Fatalf("WordReviews = %v, want one review for the repeated word", finished.WordReviews)
	}
	if err := svc.FinishTask(ctx, finished); err != nil {
		t.Fatalf("FinishTask() error = %v", err)
	}

	words, _ := st.Words(ctx)
	if words[0].Weight != 0.5 {
		t.Errorf("weight = %v, want factor applied once", words[0].Weight)
	}
	summary, _ := st.Summary(ctx)
	if summary.Reviews != 1 || summary.Succeeded != 1 {
		t.Errorf("Summary() = %+v, want a single succeeded review", summary)
	}
}

func TestStats(t *testing.T) {
	st := newTestStore(t,
		[]store.Word{
			{ID: 1, Word: "go", Weight: 0.2, LongTermMemory: 0.3},
			{ID: 2, Word: "the", Weight: 1.5, LongTermMemory: 0.9},
		},
		nil,
	)
	svc := newTestService(st, Options{})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.MaxWeight != 1.5 {
		t.Errorf("MaxWeight = %v", stats.MaxWeight)
	}
	if len(stats.Words) != 2 || stats.Words[0].Word != "the" {
		t.Errorf("Words = %+v, want heaviest first", stats.Words)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("  Grüne  Äpfel\tsind ")
	want := []token{{"Grüne", 2}, {"Äpfel", 9}, {"sind", 15}}
	if len(got) != len(want) {
		t.Fatalf("tokenize() = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
