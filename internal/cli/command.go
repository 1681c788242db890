package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/clozerecall/internal"
	"codeberg.org/snonux/clozerecall/internal/store"
)

// Commands holds the root command and its subcommands. The caller attaches
// the RunE functions.
type Commands struct {
	Root    *cobra.Command
	Import  *cobra.Command
	Stats   *cobra.Command
	Weights *cobra.Command
	Models  *cobra.Command
}

// CreateCommands creates and configures the cobra command tree
func CreateCommands(flags *Flags) *Commands {
	rootCmd := &cobra.Command{
		Use:   "clozerecall",
		Short: "Fill-in-the-blank vocabulary drill",
		Long: `clozerecall drills vocabulary with cloze exercises.

A sentence is shown with one or more words blanked out. Type the missing
words, press enter to check them and press enter again for the next
sentence. Sentence recordings are fetched in the background and can be
replayed with ctrl+p.

Examples:
  clozerecall import --words words.txt --sentences pairs.tsv --audio audio.tsv
  clozerecall                           # Start the drill
  clozerecall stats                     # Show word weights
  clozerecall weights --failed 2.5      # Change weight factors`,
		Args:         cobra.NoArgs,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import word frequencies, sentence pairs and audio ids",
		Long: `import replaces the word list and adds sentences to the database.
A copy of the previous database is kept in the archive directory next to it.

The word file holds "word count" lines, the sentence file tab separated
"id, sentence, translation id, translation" rows and the optional audio
file tab separated "sentence id, audio id" rows.`,
		Args: cobra.NoArgs,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show word weights and review totals",
		Args:  cobra.NoArgs,
	}

	weightsCmd := &cobra.Command{
		Use:   "weights",
		Short: "Show or change the weight factors applied after a review",
		Args:  cobra.NoArgs,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List the OpenAI speech and translation models of the API key",
		Args:  cobra.NoArgs,
	}

	rootCmd.AddCommand(importCmd, statsCmd, weightsCmd, modelsCmd)

	cmds := &Commands{Root: rootCmd, Import: importCmd, Stats: statsCmd, Weights: weightsCmd, Models: modelsCmd}
	setupFlags(cmds, flags)
	setDefaults()

	return cmds
}

func setupFlags(cmds *Commands, flags *Flags) {
	home, _ := os.UserHomeDir()
	defaultLogFile := filepath.Join(home, ".local", "state", "clozerecall", "clozerecall.log")

	// Global flags
	root := cmds.Root
	root.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.clozerecall.yaml)")
	root.PersistentFlags().StringVar(&flags.DBPath, "db", store.DefaultPath(), "SQLite database with words and sentences")
	root.PersistentFlags().StringVar(&flags.LogFile, "log-file", defaultLogFile, "Log file used while the drill is running")

	// Drill flags
	root.Flags().BoolVar(&flags.NoAutoPlay, "no-auto-play", false, "Disable playing the sentence after every check")
	root.Flags().BoolVar(&flags.NoTranslate, "no-translate", false, "Do not translate sentences without stored translations")
	root.Flags().StringVar(&flags.TargetLanguage, "target-language", flags.TargetLanguage, "Language sentences are translated into")
	root.Flags().StringVar(&flags.Player, "player", "", "Audio player command (default: first one found)")
	root.Flags().StringVar(&flags.SpoolDir, "spool-dir", "", "Directory for decoded clips (default: system temp dir)")

	// Audio flags
	root.Flags().StringVar(&flags.AudioProvider, "audio-provider", flags.AudioProvider, "Sentence audio: tatoeba, openai, gemini or espeak")
	root.Flags().StringVar(&flags.AudioFallback, "audio-fallback", "", "Provider used when the first one has no audio")
	root.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	root.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	root.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	root.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts model")
	root.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini TTS model")
	root.Flags().StringVar(&flags.GeminiVoice, "gemini-voice", flags.GeminiVoice, "Gemini prebuilt voice name")
	root.Flags().StringVar(&flags.ESpeakVoice, "espeak-voice", flags.ESpeakVoice, "espeak-ng voice, e.g. en, de or bg+f1")
	root.Flags().IntVar(&flags.ESpeakSpeed, "espeak-speed", flags.ESpeakSpeed, "espeak-ng speed in words per minute (80 to 450)")

	// Import flags
	cmds.Import.Flags().StringVar(&flags.WordsFile, "words", "", "Word frequency list (\"word count\" per line)")
	cmds.Import.Flags().StringVar(&flags.SentencesFile, "sentences", "", "Sentence pairs (TSV)")
	cmds.Import.Flags().StringVar(&flags.AudioFile, "audio", "", "Sentence audio ids (TSV)")
	cmds.Import.MarkFlagRequired("words")
	cmds.Import.MarkFlagRequired("sentences")

	// Weights flags
	cmds.Weights.Flags().Float64Var(&flags.WeightSucceeded, "succeeded", flags.WeightSucceeded, "Weight factor after a correct answer")
	cmds.Weights.Flags().Float64Var(&flags.WeightFailed, "failed", flags.WeightFailed, "Weight factor after a wrong answer")

	// Bind flags to viper
	bindFlagsToViper(cmds)
}

func bindFlagsToViper(cmds *Commands) {
	root := cmds.Root
	viper.BindPFlag("data.db_path", root.PersistentFlags().Lookup("db"))
	viper.BindPFlag("log.file", root.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("audio.provider", root.Flags().Lookup("audio-provider"))
	viper.BindPFlag("audio.fallback", root.Flags().Lookup("audio-fallback"))
	viper.BindPFlag("audio.openai_model", root.Flags().Lookup("openai-model"))
	viper.BindPFlag("audio.openai_voice", root.Flags().Lookup("openai-voice"))
	viper.BindPFlag("audio.openai_speed", root.Flags().Lookup("openai-speed"))
	viper.BindPFlag("audio.openai_instruction", root.Flags().Lookup("openai-instruction"))
	viper.BindPFlag("audio.gemini_model", root.Flags().Lookup("gemini-model"))
	viper.BindPFlag("audio.gemini_voice", root.Flags().Lookup("gemini-voice"))
	viper.BindPFlag("audio.espeak_voice", root.Flags().Lookup("espeak-voice"))
	viper.BindPFlag("audio.espeak_speed", root.Flags().Lookup("espeak-speed"))
	viper.BindPFlag("audio.player", root.Flags().Lookup("player"))
	viper.BindPFlag("audio.spool_dir", root.Flags().Lookup("spool-dir"))
	viper.BindPFlag("translation.target_language", root.Flags().Lookup("target-language"))
}

// setDefaults registers the keys that are only read from the config file.
func setDefaults() {
	viper.SetDefault("audio.tatoeba_url", "https://tatoeba.org")
	viper.SetDefault("audio.enable_cache", true)
	viper.SetDefault("audio.cache_dir", "")
	viper.SetDefault("audio.espeak_pitch", 50)
	viper.SetDefault("audio.espeak_amplitude", 100)
	viper.SetDefault("audio.espeak_word_gap", 0)
	viper.SetDefault("drill.auto_play", true)
	viper.SetDefault("drill.weight_succeeded", 0.8)
	viper.SetDefault("drill.weight_failed", 2.0)
	viper.SetDefault("translation.enabled", true)
	viper.SetDefault("translation.model", "gpt-4o-mini")
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".clozerecall" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".clozerecall")
	}

	// Environment variables
	viper.SetEnvPrefix("CLOZERECALL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("audio.gemini_key")
}
