package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/clozerecall/internal/store"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCreateCommands(t *testing.T) {
	resetViper(t)

	flags := NewFlags()
	cmds := CreateCommands(flags)

	// Test basic command properties
	if cmds.Root.Use != "clozerecall" {
		t.Errorf("Expected Use to be 'clozerecall', got %s", cmds.Root.Use)
	}

	if !strings.Contains(cmds.Root.Short, "drill") {
		t.Errorf("Expected Short description to mention the drill")
	}

	for _, name := range []string{"import", "stats", "weights", "models"} {
		sub, _, err := cmds.Root.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand %s, got %v (err %v)", name, sub, err)
		}
	}

	// Test that flags are set up
	flagTests := []struct {
		name  string
		flags *pflag.FlagSet
	}{
		{"config", cmds.Root.PersistentFlags()},
		{"db", cmds.Root.PersistentFlags()},
		{"log-file", cmds.Root.PersistentFlags()},
		{"no-auto-play", cmds.Root.Flags()},
		{"no-translate", cmds.Root.Flags()},
		{"target-language", cmds.Root.Flags()},
		{"player", cmds.Root.Flags()},
		{"spool-dir", cmds.Root.Flags()},
		{"audio-provider", cmds.Root.Flags()},
		{"audio-fallback", cmds.Root.Flags()},
		{"openai-model", cmds.Root.Flags()},
		{"openai-voice", cmds.Root.Flags()},
		{"openai-speed", cmds.Root.Flags()},
		{"openai-instruction", cmds.Root.Flags()},
		{"gemini-model", cmds.Root.Flags()},
		{"gemini-voice", cmds.Root.Flags()},
		{"espeak-voice", cmds.Root.Flags()},
		{"espeak-speed", cmds.Root.Flags()},
		{"words", cmds.Import.Flags()},
		{"sentences", cmds.Import.Flags()},
		{"audio", cmds.Import.Flags()},
		{"succeeded", cmds.Weights.Flags()},
		{"failed", cmds.Weights.Flags()},
	}

	for _, tt := range flagTests {
		t.Run("flag_"+tt.name, func(t *testing.T) {
			if tt.flags.Lookup(tt.name) == nil {
				t.Errorf("Expected flag %s to exist", tt.name)
			}
		})
	}
}

func TestSetupFlagsDefaults(t *testing.T) {
	resetViper(t)

	cmds := CreateCommands(NewFlags())

	dbFlag := cmds.Root.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("db flag not found")
	}
	if dbFlag.DefValue != store.DefaultPath() {
		t.Errorf("Expected default db path %s, got %s", store.DefaultPath(), dbFlag.DefValue)
	}

	home, _ := os.UserHomeDir()
	expectedLog := filepath.Join(home, ".local", "state", "clozerecall", "clozerecall.log")
	if got := cmds.Root.PersistentFlags().Lookup("log-file").DefValue; got != expectedLog {
		t.Errorf("Expected default log file %s, got %s", expectedLog, got)
	}

	if got := cmds.Root.Flags().Lookup("audio-provider").DefValue; got != "tatoeba" {
		t.Errorf("Expected default audio provider tatoeba, got %s", got)
	}
}

func TestImportRequiresSourceFiles(t *testing.T) {
	resetViper(t)

	cmds := CreateCommands(NewFlags())
	cmds.Import.RunE = func(cmd *cobra.Command, args []string) error { return nil }
	cmds.Root.SetArgs([]string{"import", "--words", "words.txt"})
	cmds.Root.SetOut(new(strings.Builder))
	cmds.Root.SetErr(new(strings.Builder))

	err := cmds.Root.Execute()
	if err == nil || !strings.Contains(err.Error(), "sentences") {
		t.Errorf("Expected missing --sentences error, got %v", err)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		check     func(t *testing.T)
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `audio:
  provider: openai
  openai_key: test-key
drill:
  weight_failed: 3.5`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
			check: func(t *testing.T) {
				if got := viper.GetString("audio.provider"); got != "openai" {
					t.Errorf("audio.provider = %q, want openai", got)
				}
				if got := viper.GetFloat64("drill.weight_failed"); got != 3.5 {
					t.Errorf("drill.weight_failed = %v, want 3.5", got)
				}
			},
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			check: func(t *testing.T) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			InitConfig(tt.setupFunc(t))

			// Test environment variable prefix
			t.Setenv("CLOZERECALL_TEST_VAR", "test-value")
			if viper.GetString("test_var") != "test-value" {
				t.Error("Environment variable not properly loaded")
			}

			tt.check(t)
		})
	}
}

func TestGetOpenAIKey(t *testing.T) {
	tests := []struct {
		name      string
		envKey    string
		configKey string
		expected  string
	}{
		{"from environment", "env-test-key", "config-test-key", "env-test-key"},
		{"from config when no env", "", "config-test-key", "config-test-key"},
		{"empty when neither set", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("OPENAI_API_KEY", tt.envKey)

			if tt.configKey != "" {
				viper.Set("audio.openai_key", tt.configKey)
			}

			if got := GetOpenAIKey(); got != tt.expected {
				t.Errorf("GetOpenAIKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetGeminiKey(t *testing.T) {
	tests := []struct {
		name      string
		gemini    string
		google    string
		configKey string
		expected  string
	}{
		{"gemini env first", "gemini-key", "google-key", "config-key", "gemini-key"},
		{"google env", "", "google-key", "config-key", "google-key"},
		{"from config", "", "", "config-key", "config-key"},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("GEMINI_API_KEY", tt.gemini)
			t.Setenv("GOOGLE_API_KEY", tt.google)

			if tt.configKey != "" {
				viper.Set("audio.gemini_key", tt.configKey)
			}

			if got := GetGeminiKey(); got != tt.expected {
				t.Errorf("GetGeminiKey() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmds := CreateCommands(NewFlags())

	// Set some flag values
	cmds.Root.PersistentFlags().Set("db", "/test/words.db")
	cmds.Root.Flags().Set("audio-provider", "gemini")
	cmds.Root.Flags().Set("openai-model", "tts-1-hd")
	cmds.Root.Flags().Set("espeak-voice", "de")

	// Test that values are bound
	if got := viper.GetString("data.db_path"); got != "/test/words.db" {
		t.Errorf("Expected data.db_path to be /test/words.db, got %s", got)
	}
	if got := viper.GetString("audio.provider"); got != "gemini" {
		t.Errorf("Expected audio.provider to be gemini, got %s", got)
	}
	if got := viper.GetString("audio.openai_model"); got != "tts-1-hd" {
		t.Errorf("Expected audio.openai_model to be tts-1-hd, got %s", got)
	}

	if got := viper.GetString("audio.espeak_voice"); got != "de" {
		t.Errorf("Expected audio.espeak_voice to be de, got %s", got)
	}
	if got := viper.GetInt("audio.espeak_speed"); got != 150 {
		t.Errorf("Expected audio.espeak_speed default 150, got %d", got)
	}

	// Unchanged flags fall through to their defaults
	if got := viper.GetString("audio.gemini_voice"); got != "Kore" {
		t.Errorf("Expected audio.gemini_voice default Kore, got %s", got)
	}
	if !viper.GetBool("drill.auto_play") {
		t.Error("Expected drill.auto_play to default to true")
	}
}
