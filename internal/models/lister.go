package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when listing without an OpenAI API key.
var ErrNoAPIKey = errors.New("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure audio.openai_key in .clozerecall.yaml")

// maxChatModels limits the chat model section, the API returns dozens.
const maxChatModels = 10

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister. An empty baseURL selects the
// public API.
func NewLister(apiKey, baseURL string) *Lister {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// Catalog holds the models usable by clozerecall, sorted by id.
type Catalog struct {
	Speech []string // for audio.openai_model
	Chat   []string // for translation.model
}

// Catalog fetches and categorizes the models of the API key
func (l *Lister) Catalog(ctx context.Context) (Catalog, error) {
	if l.apiKey == "" {
		return Catalog{}, ErrNoAPIKey
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to list models: %w", err)
	}

	var c Catalog
	for _, model := range models.Models {
		id := model.ID
		switch {
		case strings.Contains(id, "tts"):
			c.Speech = append(c.Speech, id)
		case strings.HasPrefix(id, "gpt-") && !strings.Contains(id, "audio") && !strings.Contains(id, "realtime"):
			c.Chat = append(c.Chat, id)
		}
	}
	sort.Strings(c.Speech)
	sort.Strings(c.Chat)
	return c, nil
}

// ListAvailableModels prints the speech and translation models to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	c, err := l.Catalog(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available OpenAI Models:")
	fmt.Fprintln(w, "\nText-to-Speech Models (audio.openai_model):")
	if len(c.Speech) == 0 {
		fmt.Fprintln(w, "  No TTS models found")
	}
	for _, model := range c.Speech {
		fmt.Fprintf(w, "  %s\n", model)
	}

	fmt.Fprintln(w, "\nTranslation Models (translation.model):")
	if len(c.Chat) == 0 {
		fmt.Fprintln(w, "  No chat models found")
	}
	shown := c.Chat
	if len(shown) > maxChatModels {
		shown = shown[:maxChatModels]
	}
	for _, model := range shown {
		fmt.Fprintf(w, "  %s\n", model)
	}
	if len(c.Chat) > len(shown) {
		fmt.Fprintf(w, "  ... and %d more models\n", len(c.Chat)-len(shown))
	}
	return nil
}
