// Package sourcedata parses the word frequency, sentence pair and sentence
// audio files that seed the learning database.
package sourcedata

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"codeberg.org/snonux/clozerecall/internal/store"
)

const (
	// MaxWordCount limits how many words of a frequency list are kept.
	MaxWordCount = 10000
	// MaxSentenceLen is the rune length from which sentences are dropped.
	MaxSentenceLen = 100
	// InitialLongTermMemory is the memory value of a word never reviewed.
	InitialLongTermMemory = 0.3
)

// ReadWordFile reads a frequency list, see ParseWordList.
func ReadWordFile(filename string) ([]store.Word, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}
	return ParseWordList(string(content))
}

// ParseWordList parses lines of the form "word count", most frequent word
// first. Malformed lines are skipped. The weight of each word is its count
// relative to the first word, squared.
func ParseWordList(content string) ([]store.Word, error) {
	var words []store.Word
	var maxCount float64

	for _, line := range splitLines(content) {
		if len(words) == MaxWordCount {
			break
		}
		fields := strings.Split(strings.TrimSpace(line), " ")
		if len(fields) != 2 || fields[0] == "" {
			continue
		}
		count, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		if len(words) == 0 {
			maxCount = float64(count)
		}

		ratio := 0.0
		if maxCount > 0 {
			ratio = float64(count) / maxCount
		}
		words = append(words, store.Word{
			ID:             len(words),
			Word:           fields[0],
			Weight:         ratio * ratio,
			LongTermMemory: InitialLongTermMemory,
		})
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("word list: %w", store.ErrNoWords)
	}
	return words, nil
}

// ReadSentenceFile reads sentence pairs, see ParseSentencePairs.
func ReadSentenceFile(filename string) ([]store.Sentence, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read sentence file: %w", err)
	}
	return ParseSentencePairs(string(content)), nil
}

// ParseSentencePairs parses tab separated rows of
// "id original translation_id translation". Rows sharing a sentence id add
// translations to the same sentence. Sentences of MaxSentenceLen runes or
// more are dropped. Sentences are returned in order of first appearance.
func ParseSentencePairs(content string) []store.Sentence {
	var sentences []store.Sentence
	index := make(map[int]int)

	for _, line := range splitLines(content) {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		trID, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		original := fields[1]
		if utf8.RuneCountInString(original) >= MaxSentenceLen {
			continue
		}

		tr := store.Translation{ID: trID, Text: fields[3]}
		if i, ok := index[id]; ok {
			sentences[i].Translations = append(sentences[i].Translations, tr)
			continue
		}
		index[id] = len(sentences)
		sentences = append(sentences, store.Sentence{
			ID:           id,
			Original:     original,
			Lowercase:    strings.ToLower(original),
			Translations: []store.Translation{tr},
		})
	}

	return sentences
}

// ReadAudioFile reads sentence audio links, see ParseAudioRefs.
func ReadAudioFile(filename string) ([]store.AudioRef, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	return ParseAudioRefs(string(content)), nil
}

// ParseAudioRefs parses tab separated "sentence_id audio_id" rows. Extra
// columns such as the recording author or license are ignored.
func ParseAudioRefs(content string) []store.AudioRef {
	var refs []store.AudioRef
	for _, line := range splitLines(content) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		sentenceID, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		audioID, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		refs = append(refs, store.AudioRef{SentenceID: sentenceID, AudioID: audioID})
	}
	return refs
}

// splitLines splits on newlines and strips carriage returns.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
