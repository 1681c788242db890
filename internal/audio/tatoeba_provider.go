package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"codeberg.org/snonux/clozerecall/internal"
	"github.com/sony/gobreaker"
)

// maxClipSize bounds a single downloaded recording.
const maxClipSize = 10 << 20

// TatoebaProvider downloads the human recordings of a sentence.
type TatoebaProvider struct {
	baseURL string
	client  *http.Client
	ids     AudioIDSource
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
}

// NewTatoebaProvider creates a provider for the recordings listed by ids.
func NewTatoebaProvider(config *Config, ids AudioIDSource, logger *log.Logger) *TatoebaProvider {
	if logger == nil {
		logger = log.Default()
	}
	timeout := config.HTTPTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	baseURL := config.TatoebaURL
	if baseURL == "" {
		baseURL = "https://tatoeba.org"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "tatoeba",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// A superseded load is not a server failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &TatoebaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		ids:     ids,
		breaker: breaker,
		logger:  logger,
	}
}

// FetchClips downloads every recording of the sentence. A recording that
// fails to download is skipped.
func (p *TatoebaProvider) FetchClips(ctx context.Context, sentenceID int, sentence string, emit func([]byte) error) error {
	ids, err := p.ids.AudioIDs(ctx, sentenceID)
	if err != nil {
		return fmt.Errorf("failed to look up audio of sentence %d: %w", sentenceID, err)
	}
	if len(ids) == 0 {
		return ErrNoAudio
	}

	emitted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := p.download(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrCircuitOpen) {
				if emitted > 0 {
					return nil
				}
				return err
			}
			p.logger.Printf("Skipping recording %d of sentence %d: %v", id, sentenceID, err)
			continue
		}

		if err := emit(data); err != nil {
			return err
		}
		emitted++
	}

	if emitted == 0 {
		return ErrNoAudio
	}
	return nil
}

func (p *TatoebaProvider) download(ctx context.Context, audioID int) ([]byte, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/audio/download/%d", p.baseURL, audioID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "clozerecall/"+internal.Version)

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize))
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("empty recording")
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Name returns the provider name
func (p *TatoebaProvider) Name() string {
	return "tatoeba"
}

// IsAvailable reports whether downloads are currently attempted.
func (p *TatoebaProvider) IsAvailable() error {
	if p.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	return nil
}
