package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoWords is returned when no words have been imported yet.
var ErrNoWords = errors.New("no words to review, import source data first")

// Word is a vocabulary entry with its review weight.
type Word struct {
	ID             int
	Word           string
	Weight         float64 // likelihood of being picked for review
	LongTermMemory float64 // 0..1, how well the word has been learned
	LastReview     time.Time
}

// Sentence is a source sentence with its translations.
type Sentence struct {
	ID           int
	Original     string
	Lowercase    string
	Translations []Translation
}

// Translation is one translated sentence.
type Translation struct {
	ID   int
	Text string
}

// AudioRef links a sentence to one downloadable recording.
type AudioRef struct {
	SentenceID int
	AudioID    int
}

// Review is one recorded word review.
type Review struct {
	WordID     int
	Succeeded  bool
	ReviewedAt time.Time
}

// Store persists learning data in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the database location under the XDG state directory.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "clozerecall", "clozerecall.db")
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY,
			word TEXT UNIQUE NOT NULL,
			weight REAL NOT NULL,
			long_term_memory REAL NOT NULL,
			last_review INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sentences (
			id INTEGER PRIMARY KEY,
			original TEXT NOT NULL,
			lowercase TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS translations (
			id INTEGER NOT NULL,
			sentence_id INTEGER NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			PRIMARY KEY (sentence_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS sentence_audio (
			sentence_id INTEGER NOT NULL,
			audio_id INTEGER NOT NULL,
			PRIMARY KEY (sentence_id, audio_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			word_id INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			reviewed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_word ON reviews(word_id)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceWords removes all words and inserts words. IDs are assigned in
// order starting at 0 when Word.ID is left at zero for every entry.
func (s *Store) ReplaceWords(ctx context.Context, words []Word) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM words`); err != nil {
		return fmt.Errorf("failed to clear words: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO words (id, word, weight, long_term_memory, last_review) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, w := range words {
		id := w.ID
		if id == 0 {
			id = i
		}
		if _, err := stmt.ExecContext(ctx, id, w.Word, w.Weight, w.LongTermMemory, unixOrZero(w.LastReview)); err != nil {
			return fmt.Errorf("failed to insert word %q: %w", w.Word, err)
		}
	}

	return tx.Commit()
}

// Words returns all words ordered by id.
func (s *Store) Words(ctx context.Context) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, word, weight, long_term_memory, last_review FROM words ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []Word
	for rows.Next() {
		var w Word
		var last int64
		if err := rows.Scan(&w.ID, &w.Word, &w.Weight, &w.LongTermMemory, &last); err != nil {
			return nil, err
		}
		w.LastReview = time.Unix(last, 0).UTC()
		words = append(words, w)
	}
	return words, rows.Err()
}

// Word returns a single word by id.
func (s *Store) Word(ctx context.Context, id int) (Word, error) {
	var w Word
	var last int64
	err := s.db.QueryRowContext(ctx, `SELECT id, word, weight, long_term_memory, last_review FROM words WHERE id = ?`, id).
		Scan(&w.ID, &w.Word, &w.Weight, &w.LongTermMemory, &last)
	if err != nil {
		return Word{}, fmt.Errorf("word %d: %w", id, err)
	}
	w.LastReview = time.Unix(last, 0).UTC()
	return w, nil
}

// UpdateWord stores the review state of w.
func (s *Store) UpdateWord(ctx context.Context, w Word) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE words SET weight = ?, long_term_memory = ?, last_review = ? WHERE id = ?`,
		w.Weight, w.LongTermMemory, unixOrZero(w.LastReview), w.ID)
	if err != nil {
		return fmt.Errorf("failed to update word %d: %w", w.ID, err)
	}
	return nil
}

// DeleteWord removes a word that no sentence contains.
func (s *Store) DeleteWord(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE id = ?`, id)
	return err
}

// AddSentences inserts sentences with their translations, replacing
// sentences with the same id.
func (s *Store) AddSentences(ctx context.Context, sentences []Sentence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sen := range sentences {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO sentences (id, original, lowercase) VALUES (?, ?, ?)`,
			sen.ID, sen.Original, sen.Lowercase); err != nil {
			return fmt.Errorf("failed to insert sentence %d: %w", sen.ID, err)
		}
		for _, tr := range sen.Translations {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO translations (id, sentence_id, text) VALUES (?, ?, ?)`,
				tr.ID, sen.ID, tr.Text); err != nil {
				return fmt.Errorf("failed to insert translation %d: %w", tr.ID, err)
			}
		}
	}

	return tx.Commit()
}

// SentencesContaining returns the sentences whose lower-cased text contains
// word as a whitespace separated token.
func (s *Store) SentencesContaining(ctx context.Context, word string) ([]Sentence, error) {
	pattern := "%" + escapeLike(word) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, original, lowercase FROM sentences WHERE lowercase LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sentences []Sentence
	for rows.Next() {
		var sen Sentence
		if err := rows.Scan(&sen.ID, &sen.Original, &sen.Lowercase); err != nil {
			return nil, err
		}
		if ContainsWord(sen.Lowercase, word) {
			sentences = append(sentences, sen)
		}
	}
	return sentences, rows.Err()
}

// Translations returns the stored translations of a sentence.
func (s *Store) Translations(ctx context.Context, sentenceID int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text FROM translations WHERE sentence_id = ? ORDER BY id`, sentenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

// AddAudioRefs stores sentence to recording links.
func (s *Store) AddAudioRefs(ctx context.Context, refs []AudioRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sentence_audio (sentence_id, audio_id) VALUES (?, ?)`,
			ref.SentenceID, ref.AudioID); err != nil {
			return fmt.Errorf("failed to insert audio %d: %w", ref.AudioID, err)
		}
	}
	return tx.Commit()
}

// AudioIDs returns the recordings available for a sentence.
func (s *Store) AudioIDs(ctx context.Context, sentenceID int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT audio_id FROM sentence_audio WHERE sentence_id = ? ORDER BY audio_id`, sentenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecordReviews appends reviews made during a session.
func (s *Store) RecordReviews(ctx context.Context, sessionID string, reviews []Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range reviews {
		succeeded := 0
		if r.Succeeded {
			succeeded = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reviews (session_id, word_id, succeeded, reviewed_at) VALUES (?, ?, ?, ?)`,
			sessionID, r.WordID, succeeded, unixOrZero(r.ReviewedAt)); err != nil {
			return fmt.Errorf("failed to record review: %w", err)
		}
	}
	return tx.Commit()
}

// ReviewSummary aggregates the review log.
type ReviewSummary struct {
	Sessions  int
	Reviews   int
	Succeeded int
	Failed    int
}

// Summary returns totals over all recorded reviews.
func (s *Store) Summary(ctx context.Context) (ReviewSummary, error) {
	var sum ReviewSummary
	var succeeded sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT session_id), COUNT(*), SUM(succeeded) FROM reviews`).
		Scan(&sum.Sessions, &sum.Reviews, &succeeded)
	if err != nil {
		return ReviewSummary{}, err
	}
	sum.Succeeded = int(succeeded.Int64)
	sum.Failed = sum.Reviews - sum.Succeeded
	return sum, nil
}

// ContainsWord reports whether sentence has word as a whitespace token.
// The comparison is case sensitive.
func ContainsWord(sentence, word string) bool {
	for _, token := range strings.Fields(sentence) {
		if token == word {
			return true
		}
	}
	return false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
