package audio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

const espeakBinary = "espeak-ng"

// ESpeakProvider synthesizes sentences offline with the espeak-ng command.
// The WAV output is read from stdout so no files are written.
type ESpeakProvider struct {
	binary    string
	voice     string // e.g. "en", "de", "bg+f1"
	speed     int    // words per minute
	pitch     int
	amplitude int
	wordGap   int // in 10ms units
	logger    *log.Logger
}

// NewESpeakProvider creates a new espeak-ng provider. It fails when
// espeak-ng is not installed.
func NewESpeakProvider(config *Config, logger *log.Logger) (*ESpeakProvider, error) {
	return newESpeakProvider(config, espeakBinary, logger)
}

func newESpeakProvider(config *Config, binary string, logger *log.Logger) (*ESpeakProvider, error) {
	if err := checkESpeakInstalled(binary); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	p := &ESpeakProvider{binary: binary, voice: config.ESpeakVoice, logger: logger}
	if p.voice == "" {
		p.voice = "en"
	}
	p.SetSpeed(config.ESpeakSpeed)
	p.SetPitch(config.ESpeakPitch)
	p.SetAmplitude(config.ESpeakAmplitude)
	p.SetWordGap(config.ESpeakWordGap)
	return p, nil
}

// FetchClips synthesizes the sentence as a single WAV clip.
func (p *ESpeakProvider) FetchClips(ctx context.Context, sentenceID int, sentence string, emit func([]byte) error) error {
	if err := ValidateSentence(sentence); err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, p.args(sentence)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("espeak-ng failed: %w, output: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return fmt.Errorf("%w: espeak-ng produced no output", ErrNoAudio)
	}

	p.logger.Printf("Synthesized sentence %d with espeak-ng voice %s (%d bytes)", sentenceID, p.voice, stdout.Len())
	return emit(stdout.Bytes())
}

func (p *ESpeakProvider) args(text string) []string {
	args := []string{
		"-v", p.voice,
		"-s", strconv.Itoa(p.speed),
		"-p", strconv.Itoa(p.pitch),
		"-a", strconv.Itoa(p.amplitude),
	}
	if p.wordGap > 0 {
		args = append(args, "-g", strconv.Itoa(p.wordGap))
	}
	return append(args, "--stdout", text)
}

// SetSpeed sets the speech speed in words per minute, clamped to 80-450.
// Zero selects the default of 150.
func (p *ESpeakProvider) SetSpeed(speed int) {
	switch {
	case speed == 0:
		speed = 150
	case speed < 80:
		speed = 80
	case speed > 450:
		speed = 450
	}
	p.speed = speed
}

// SetPitch sets the pitch, clamped to 0-99. Zero selects the default of 50.
func (p *ESpeakProvider) SetPitch(pitch int) {
	switch {
	case pitch <= 0:
		pitch = 50
	case pitch > 99:
		pitch = 99
	}
	p.pitch = pitch
}

// SetAmplitude sets the volume, clamped to 0-200. Zero selects the
// default of 100.
func (p *ESpeakProvider) SetAmplitude(amplitude int) {
	switch {
	case amplitude <= 0:
		amplitude = 100
	case amplitude > 200:
		amplitude = 200
	}
	p.amplitude = amplitude
}

// SetWordGap sets the pause between words in 10ms units.
func (p *ESpeakProvider) SetWordGap(gap int) {
	if gap < 0 {
		gap = 0
	}
	p.wordGap = gap
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled(p.binary)
}

func checkESpeakInstalled(binary string) error {
	if err := exec.Command(binary, "--version").Run(); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}
