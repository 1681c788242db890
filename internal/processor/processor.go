package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/clozerecall/internal/archive"
	"codeberg.org/snonux/clozerecall/internal/audio"
	"codeberg.org/snonux/clozerecall/internal/backend"
	"codeberg.org/snonux/clozerecall/internal/cli"
	"codeberg.org/snonux/clozerecall/internal/models"
	"codeberg.org/snonux/clozerecall/internal/playback"
	"codeberg.org/snonux/clozerecall/internal/session"
	"codeberg.org/snonux/clozerecall/internal/sourcedata"
	"codeberg.org/snonux/clozerecall/internal/store"
	"codeberg.org/snonux/clozerecall/internal/translation"
	"codeberg.org/snonux/clozerecall/internal/tui"
)

// errNoPlayer is reported on play requests when no audio player was found.
var errNoPlayer = errors.New("no audio player available")

// Processor runs the clozerecall commands
type Processor struct {
	flags *cli.Flags
	out   io.Writer
}

// NewProcessor creates a processor printing its reports to out
func NewProcessor(flags *cli.Flags, out io.Writer) *Processor {
	if out == nil {
		out = os.Stdout
	}
	return &Processor{flags: flags, out: out}
}

// RunDrill starts the terminal drill and blocks until the user quits
func (p *Processor) RunDrill(ctx context.Context) error {
	logger, closeLog, err := p.openLog()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := p.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	words, err := st.Words(ctx)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: run 'clozerecall import' first", store.ErrNoWords)
	}

	opts := backend.Options{
		Factors:    p.WeightFactors(),
		Translator: p.translator(),
		Logger:     logger,
	}
	provider, err := audio.NewProvider(ctx, p.audioConfig(), st, logger)
	if err != nil {
		logger.Printf("Sentence audio disabled: %v", err)
	} else {
		opts.Provider = provider
	}
	svc := backend.New(st, opts)
	logger.Printf("Starting session %s", svc.SessionID())

	decoder, err := playback.NewSpoolDecoder(viper.GetString("audio.spool_dir"))
	if err != nil {
		return err
	}
	coord := playback.NewCoordinator(ctx, svc, decoder, p.player(logger), logger)
	clips := tui.ClipEvents(coord)

	ctrl := session.New(svc, coord, session.Options{
		AutoPlay: viper.GetBool("drill.auto_play") && !p.flags.NoAutoPlay,
		Logger:   logger,
	})
	defer func() {
		if err := ctrl.Close(); err != nil {
			logger.Printf("Failed to close session: %v", err)
		}
	}()

	return tui.Run(ctx, ctrl, clips)
}

// ImportSourceData replaces the word list and adds the sentences and audio
// ids of the configured source files
func (p *Processor) ImportSourceData(ctx context.Context) error {
	words, err := sourcedata.ReadWordFile(p.flags.WordsFile)
	if err != nil {
		return err
	}
	sentences, err := sourcedata.ReadSentenceFile(p.flags.SentencesFile)
	if err != nil {
		return err
	}
	var refs []store.AudioRef
	if p.flags.AudioFile != "" {
		if refs, err = sourcedata.ReadAudioFile(p.flags.AudioFile); err != nil {
			return err
		}
	}

	// Replacing the words resets their learning state, keep a copy
	backup, err := archive.BackupDatabase(p.dbPath(), time.Now())
	if err != nil {
		return err
	}

	st, err := p.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ReplaceWords(ctx, words); err != nil {
		return err
	}
	if err := st.AddSentences(ctx, sentences); err != nil {
		return err
	}
	if err := st.AddAudioRefs(ctx, refs); err != nil {
		return err
	}

	translations := 0
	for _, s := range sentences {
		translations += len(s.Translations)
	}

	// Print summary
	fmt.Fprintf(p.out, "=== Import Summary ===\n")
	fmt.Fprintf(p.out, "Database: %s\n", p.dbPath())
	if backup != "" {
		fmt.Fprintf(p.out, "Previous database: %s\n", backup)
	}
	fmt.Fprintf(p.out, "Words: %d\n", len(words))
	fmt.Fprintf(p.out, "Sentences: %d\n", len(sentences))
	fmt.Fprintf(p.out, "Translations: %d\n", translations)
	fmt.Fprintf(p.out, "Audio ids: %d\n", len(refs))
	fmt.Fprintf(p.out, "======================\n")
	return nil
}

// statsBarWidth is the width of the weight bar of the heaviest word.
const statsBarWidth = 30

// PrintStats prints the review totals and the heaviest words
func (p *Processor) PrintStats(ctx context.Context, limit int) error {
	st, err := p.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := backend.New(st, backend.Options{}).Stats(ctx)
	if err != nil {
		return err
	}

	r := stats.Reviews
	fmt.Fprintf(p.out, "Sessions: %d  Reviews: %d  Succeeded: %d  Failed: %d\n\n",
		r.Sessions, r.Reviews, r.Succeeded, r.Failed)

	words := stats.Words
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	for _, w := range words {
		bar := 0
		if stats.MaxWeight > 0 {
			bar = int(w.Weight / stats.MaxWeight * statsBarWidth)
		}
		fmt.Fprintf(p.out, "%-20s %8.4f  ltm %.2f  %s\n", w.Word, w.Weight, w.LongTermMemory, strings.Repeat("#", bar))
	}
	if len(words) < len(stats.Words) {
		fmt.Fprintf(p.out, "... %d more\n", len(stats.Words)-len(words))
	}
	return nil
}

// ShowWeights prints the configured weight factors
func (p *Processor) ShowWeights() {
	f := p.WeightFactors()
	fmt.Fprintf(p.out, "succeeded: %g\nfailed: %g\n", f.Succeeded, f.Failed)
}

// SaveWeights stores new weight factors in the config file. A missing
// config file is created in the home directory.
func (p *Processor) SaveWeights(factors backend.WeightFactors) error {
	if factors.Succeeded <= 0 || factors.Failed <= 0 {
		return fmt.Errorf("weight factors must be positive, got %g and %g", factors.Succeeded, factors.Failed)
	}

	viper.Set("drill.weight_succeeded", factors.Succeeded)
	viper.Set("drill.weight_failed", factors.Failed)

	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".clozerecall.yaml")
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(p.out, "Saved weight factors to %s\n", path)
	p.ShowWeights()
	return nil
}

// ListModels prints the OpenAI models usable for sentence audio and
// translation
func (p *Processor) ListModels(ctx context.Context) error {
	return models.NewLister(cli.GetOpenAIKey(), "").ListAvailableModels(ctx, p.out)
}

func (p *Processor) dbPath() string {
	if path := viper.GetString("data.db_path"); path != "" {
		return path
	}
	return store.DefaultPath()
}

func (p *Processor) openStore() (*store.Store, error) {
	return store.Open(p.dbPath())
}

// openLog sends log output to the log file so it does not draw over the
// terminal UI.
func (p *Processor) openLog() (*log.Logger, func(), error) {
	path := viper.GetString("log.file")
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	previous := log.Writer()
	log.SetOutput(f)
	return log.New(f, "", log.LstdFlags), func() {
		log.SetOutput(previous)
		f.Close()
	}, nil
}

// WeightFactors returns the configured weight factors, or the defaults when
// a factor is not positive
func (p *Processor) WeightFactors() backend.WeightFactors {
	f := backend.WeightFactors{
		Succeeded: viper.GetFloat64("drill.weight_succeeded"),
		Failed:    viper.GetFloat64("drill.weight_failed"),
	}
	if f.Succeeded <= 0 || f.Failed <= 0 {
		return backend.DefaultWeightFactors()
	}
	return f
}

// audioConfig builds the provider configuration, using config file values
// where no flag overrides them.
func (p *Processor) audioConfig() *audio.Config {
	config := audio.DefaultProviderConfig()

	if v := viper.GetString("audio.provider"); v != "" {
		config.Provider = v
	}
	config.Fallback = viper.GetString("audio.fallback")
	if v := viper.GetString("audio.tatoeba_url"); v != "" {
		config.TatoebaURL = v
	}

	config.OpenAIKey = cli.GetOpenAIKey()
	if v := viper.GetString("audio.openai_model"); v != "" {
		config.OpenAIModel = v
	}
	if v := viper.GetString("audio.openai_voice"); v != "" {
		config.OpenAIVoice = v
	}
	if v := viper.GetFloat64("audio.openai_speed"); v > 0 {
		config.OpenAISpeed = v
	}
	if v := viper.GetString("audio.openai_instruction"); v != "" {
		config.OpenAIInstruction = v
	}

	config.GeminiKey = cli.GetGeminiKey()
	if v := viper.GetString("audio.gemini_model"); v != "" {
		config.GeminiModel = v
	}
	if v := viper.GetString("audio.gemini_voice"); v != "" {
		config.GeminiVoice = v
	}

	if v := viper.GetString("audio.espeak_voice"); v != "" {
		config.ESpeakVoice = v
	}
	if v := viper.GetInt("audio.espeak_speed"); v > 0 {
		config.ESpeakSpeed = v
	}
	if v := viper.GetInt("audio.espeak_pitch"); v > 0 {
		config.ESpeakPitch = v
	}
	if v := viper.GetInt("audio.espeak_amplitude"); v > 0 {
		config.ESpeakAmplitude = v
	}
	config.ESpeakWordGap = viper.GetInt("audio.espeak_word_gap")

	config.EnableCache = viper.GetBool("audio.enable_cache")
	config.CacheDir = viper.GetString("audio.cache_dir")
	if config.EnableCache && config.CacheDir == "" {
		home, _ := os.UserHomeDir()
		config.CacheDir = filepath.Join(home, ".cache", "clozerecall", "audio")
	}
	return config
}

// translator returns nil when translation is disabled or no API key is set.
func (p *Processor) translator() backend.Translator {
	if p.flags.NoTranslate || !viper.GetBool("translation.enabled") {
		return nil
	}
	key := cli.GetOpenAIKey()
	if key == "" {
		return nil
	}
	t := translation.NewTranslator(translation.Config{
		APIKey:         key,
		Model:          viper.GetString("translation.model"),
		TargetLanguage: viper.GetString("translation.target_language"),
	})
	return translation.NewCachedTranslator(t, translation.NewTranslationCache())
}

func (p *Processor) player(logger *log.Logger) playback.Player {
	player, err := playback.NewCommandPlayer(viper.GetString("audio.player"))
	if err != nil {
		logger.Printf("Audio playback disabled: %v", err)
		return mutePlayer{}
	}
	logger.Printf("Playing clips with %s", player.Name())
	return player
}

// mutePlayer stands in when no player command exists so the drill still runs.
type mutePlayer struct{}

func (mutePlayer) Play(ctx context.Context, clip *playback.Clip) error { return errNoPlayer }

func (mutePlayer) Stop() error { return nil }
