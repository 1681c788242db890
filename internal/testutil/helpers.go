package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/snonux/clozerecall/internal/task"
)

// StoreTask is the two blank exercise "I go to the store." used across tests
func StoreTask() task.LearningTask {
	return task.LearningTask{
		SentenceID:   1,
		Sentence:     "I go to the store.",
		Translations: []string{"Ich gehe zum Laden."},
		ReviewWords: []task.TaskWord{
			{ID: 10, Word: "go", Position: 2},
			{ID: 11, Word: "store", Position: 12},
		},
	}
}

// MalformedTask is a task without review words
func MalformedTask() task.LearningTask {
	return task.LearningTask{SentenceID: 2, Sentence: "Nothing to drill."}
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// SourceFiles are the paths written by CreateSourceFiles
type SourceFiles struct {
	Words     string
	Sentences string
	Audio     string
}

// CreateSourceFiles writes a small word list, sentence list and audio list
func CreateSourceFiles(t *testing.T, dir string) SourceFiles {
	t.Helper()

	files := SourceFiles{
		Words:     filepath.Join(dir, "words.txt"),
		Sentences: filepath.Join(dir, "sentences.tsv"),
		Audio:     filepath.Join(dir, "audio.tsv"),
	}
	CreateTestFile(t, files.Words, []byte("the 100\ngo 50\nhome 20\nnowhere 1\n"))
	CreateTestFile(t, files.Sentences, []byte(
		"1\tI go home\t10\tIch gehe nach Hause\n"+
			"1\tI go home\t11\tJe rentre\n"+
			"2\tThe dog sleeps\t20\tDer Hund schläft\n"))
	CreateTestFile(t, files.Audio, []byte("1\t501\n1\t502\n"))
	return files
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file %s to exist", path)
	}
}

// AssertFileNotExists checks that a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file %s not to exist", path)
	}
}
