package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Config configures a Translator.
type Config struct {
	APIKey         string
	BaseURL        string // Empty for the public API
	Model          string
	TargetLanguage string
}

// Translator handles sentence translation
type Translator struct {
	config Config
	client *openai.Client
}

// NewTranslator creates a new translator instance
func NewTranslator(config Config) *Translator {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.TargetLanguage == "" {
		config.TargetLanguage = "English"
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Translator{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// TranslateSentence translates sentence into the target language
func (t *Translator) TranslateSentence(ctx context.Context, sentence string) (string, error) {
	if t.config.APIKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: t.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate the sentence '%s' to %s. Respond with only the translation, nothing else.",
					sentence, t.config.TargetLanguage),
			},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", fmt.Errorf("empty translation returned")
	}
	return translation, nil
}

// TranslationCache stores sentence translations in memory
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[int]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[int]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(sentenceID int, translation string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[sentenceID] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(sentenceID int) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	translation, ok := tc.translations[sentenceID]
	return translation, ok
}

// Len returns the number of cached translations
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.translations)
}

// SentenceTranslator translates a single sentence.
type SentenceTranslator interface {
	TranslateSentence(ctx context.Context, sentence string) (string, error)
}

// CachedTranslator wraps a SentenceTranslator with a TranslationCache
type CachedTranslator struct {
	translator SentenceTranslator
	cache      *TranslationCache
}

// NewCachedTranslator returns a translator consulting cache first
func NewCachedTranslator(translator SentenceTranslator, cache *TranslationCache) *CachedTranslator {
	return &CachedTranslator{translator: translator, cache: cache}
}

// Translate returns the cached translation of a sentence or asks the
// translator and caches the result.
func (c *CachedTranslator) Translate(ctx context.Context, sentenceID int, sentence string) (string, error) {
	if translation, ok := c.cache.Get(sentenceID); ok {
		return translation, nil
	}

	translation, err := c.translator.TranslateSentence(ctx, sentence)
	if err != nil {
		return "", err
	}
	c.cache.Add(sentenceID, translation)
	return translation, nil
}
