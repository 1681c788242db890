package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// Gemini speech output is 16 bit mono PCM at 24 kHz.
const (
	geminiSampleRate    = 24000
	geminiBitsPerSample = 16
	geminiChannels      = 1
)

// GeminiProvider implements Provider with Gemini speech generation
type GeminiProvider struct {
	client *genai.Client
	config *Config
	logger *log.Logger
}

// NewGeminiProvider creates a new Gemini TTS provider
func NewGeminiProvider(ctx context.Context, config *Config, logger *log.Logger) (*GeminiProvider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: config, logger: logger}, nil
}

// FetchClips synthesizes the sentence as a single WAV clip.
func (p *GeminiProvider) FetchClips(ctx context.Context, sentenceID int, sentence string, emit func([]byte) error) error {
	if err := ValidateSentence(sentence); err != nil {
		return err
	}

	p.logger.Printf("Gemini TTS: using model '%s' with voice '%s'", p.config.GeminiModel, p.config.GeminiVoice)

	prompt := "Say clearly and slowly: " + strings.TrimSpace(sentence)
	resp, err := p.client.Models.GenerateContent(ctx, p.config.GeminiModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.config.GeminiVoice},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("Gemini TTS API error: %w", err)
	}

	pcm := inlineAudio(resp)
	if len(pcm) == 0 {
		return fmt.Errorf("no audio data received from Gemini: %w", ErrNoAudio)
	}

	return emit(pcmToWAV(pcm, geminiSampleRate, geminiBitsPerSample, geminiChannels))
}

func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

// pcmToWAV prefixes raw little endian PCM with a RIFF header.
func pcmToWAV(pcm []byte, sampleRate, bitsPerSample, channels int) []byte {
	blockAlign := channels * bitsPerSample / 8
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks that an API key is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}
