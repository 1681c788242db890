package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile string
	DBPath  string
	LogFile string

	// Drill flags
	NoAutoPlay     bool
	NoTranslate    bool
	TargetLanguage string
	Player         string
	SpoolDir       string

	// Audio provider flags
	AudioProvider string
	AudioFallback string

	// OpenAI flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Gemini flags
	GeminiModel string
	GeminiVoice string

	// espeak-ng flags
	ESpeakVoice string
	ESpeakSpeed int

	// Import flags
	WordsFile     string
	SentencesFile string
	AudioFile     string

	// Weights flags
	WeightSucceeded float64
	WeightFailed    float64
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		TargetLanguage:  "English",
		AudioProvider:   "tatoeba",
		OpenAIModel:     "gpt-4o-mini-tts",
		OpenAIVoice:     "alloy",
		OpenAISpeed:     1.0,
		GeminiModel:     "gemini-2.5-flash-preview-tts",
		GeminiVoice:     "Kore",
		ESpeakVoice:     "en",
		ESpeakSpeed:     150,
		WeightSucceeded: 0.8,
		WeightFailed:    2.0,
	}
}
