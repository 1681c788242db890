package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrNoAudio is returned when a provider has no clip for a sentence.
	ErrNoAudio = errors.New("no audio available for sentence")
	// ErrCircuitOpen is returned while the download circuit breaker is open.
	ErrCircuitOpen = errors.New("audio download circuit open")
)

// Provider delivers the audio clips of one sentence
type Provider interface {
	// FetchClips calls emit once per clip, in order. It stops early when
	// ctx is cancelled or emit fails.
	FetchClips(ctx context.Context, sentenceID int, sentence string, emit func([]byte) error) error

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// AudioIDSource looks up the recordings of a sentence.
type AudioIDSource interface {
	AudioIDs(ctx context.Context, sentenceID int) ([]int, error)
}

// Config holds common configuration for audio providers
type Config struct {
	Provider string // "tatoeba", "openai", "gemini" or "espeak"
	Fallback string // Provider used when the primary yields nothing, empty for none

	// Tatoeba settings
	TatoebaURL  string
	HTTPTimeout time.Duration

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string  // Empty for the public API
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "coral", "echo", "nova", ...
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model

	// Gemini-specific settings
	GeminiKey   string
	GeminiModel string
	GeminiVoice string

	// espeak-ng settings, zero values select the espeak-ng defaults
	ESpeakVoice     string
	ESpeakSpeed     int
	ESpeakPitch     int
	ESpeakAmplitude int
	ESpeakWordGap   int

	// Synthesized clips are cached by text and voice settings
	CacheDir    string
	EnableCache bool
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "tatoeba",
		TatoebaURL:        "https://tatoeba.org",
		HTTPTimeout:       20 * time.Second,
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAIVoice:       "alloy",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "Read the sentence naturally, slowly and clearly for language learners.",
		GeminiModel:       "gemini-2.5-flash-preview-tts",
		GeminiVoice:       "Kore",
		ESpeakVoice:       "en",
		ESpeakSpeed:       150,
		ESpeakPitch:       50,
		ESpeakAmplitude:   100,
	}
}

// NewProvider creates the configured provider, wrapped with the fallback
// provider when one is set.
func NewProvider(ctx context.Context, config *Config, ids AudioIDSource, logger *log.Logger) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	primary, err := newNamedProvider(ctx, config.Provider, config, ids, logger)
	if err != nil {
		return nil, err
	}
	if config.Fallback == "" || config.Fallback == config.Provider {
		return primary, nil
	}

	fallback, err := newNamedProvider(ctx, config.Fallback, config, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return NewProviderWithFallback(primary, fallback, logger), nil
}

func newNamedProvider(ctx context.Context, name string, config *Config, ids AudioIDSource, logger *log.Logger) (Provider, error) {
	switch name {
	case "tatoeba":
		if ids == nil {
			return nil, fmt.Errorf("tatoeba provider needs an audio id source")
		}
		return NewTatoebaProvider(config, ids, logger), nil
	case "openai":
		return NewOpenAIProvider(config, logger)
	case "gemini":
		return NewGeminiProvider(ctx, config, logger)
	case "espeak", "espeak-ng":
		return NewESpeakProvider(config, logger)
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *log.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *log.Logger) Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// FetchClips tries the primary provider first. The fallback runs only when
// the primary failed before emitting any clip.
func (p *ProviderWithFallback) FetchClips(ctx context.Context, sentenceID int, sentence string, emit func([]byte) error) error {
	emitted := 0
	err := p.primary.FetchClips(ctx, sentenceID, sentence, func(data []byte) error {
		emitted++
		return emit(data)
	})
	if err == nil || emitted > 0 || ctx.Err() != nil {
		return err
	}

	p.logger.Printf("Primary provider (%s) failed: %v. Falling back to %s",
		p.primary.Name(), err, p.fallback.Name())
	return p.fallback.FetchClips(ctx, sentenceID, sentence, emit)
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
