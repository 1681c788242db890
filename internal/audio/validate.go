package audio

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSynthesisLen caps the text sent to speech synthesis.
const MaxSynthesisLen = 500

// ValidateSentence checks that text can be synthesized.
func ValidateSentence(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxSynthesisLen {
		return fmt.Errorf("text longer than %d characters", MaxSynthesisLen)
	}

	for _, r := range text {
		if unicode.IsLetter(r) {
			return nil
		}
	}
	return fmt.Errorf("text must contain letters")
}
