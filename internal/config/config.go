package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjawhar/chanti/internal/command"
	"github.com/sjawhar/chanti/internal/normalize"
	"github.com/sjawhar/chanti/internal/session"
)

// EnvPrefix is the namespace prefix for all Chanti environment variables.
const EnvPrefix = "CHANTI_"

const (
	SourceDeepgram = "deepgram"
	SourceWhisper  = "whisper"
	SourceStdin    = "stdin"

	ExecutorSystem = "system"
	ExecutorDryRun = "dry-run"
)

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	WakePhrase         string  `yaml:"wake_phrase"`
	WakeTimeout        string  `yaml:"wake_timeout"`
	WakePhraseLimit    string  `yaml:"wake_phrase_limit"`
	CommandTimeout     string  `yaml:"command_timeout"`
	CommandPhraseLimit string  `yaml:"command_phrase_limit"`
	Calibration        string  `yaml:"calibration"`
	Recalibration      string  `yaml:"recalibration"`
	MinFloor           float64 `yaml:"min_floor"`
	AutoStart          bool    `yaml:"auto_start"`

	Source           string `yaml:"source"`
	MicSampleRate    int    `yaml:"mic_sample_rate"`
	MicSampleRates   []int  `yaml:"mic_sample_rates"`
	DeepgramModel    string `yaml:"deepgram_model"`
	DeepgramLanguage string `yaml:"deepgram_language"`
	WhisperModel     string `yaml:"whisper_model"`
	WhisperBaseURL   string `yaml:"whisper_base_url"`
	WhisperLanguage  string `yaml:"whisper_language"`
	UtteranceDir     string `yaml:"utterance_dir"`
	KeepUtterances   bool   `yaml:"keep_utterances"`

	Executor      string `yaml:"executor"`
	ScreenshotDir string `yaml:"screenshot_dir"`

	// Corrections always apply; the built-in ones only for the default wake phrase.
	Corrections []normalize.Correction `yaml:"corrections"`
	// Apps and Websites extend the built-in tables.
	Apps     map[string]string `yaml:"apps"`
	Websites map[string]string `yaml:"websites"`

	DBPath     string `yaml:"db_path"`
	JournalDir string `yaml:"journal_dir"`
	ServerAddr string `yaml:"server_addr"`

	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	GDriveSyncInterval    string `yaml:"gdrive_sync_interval"`

	LogLevel string `yaml:"log_level"`

	// Secrets: env vars only, never serialized to YAML.
	DeepgramAPIKey string `yaml:"-"`
	OpenAIAPIKey   string `yaml:"-"`
}

func defaults() Config {
	s := session.DefaultConfig()
	return Config{
		WakePhrase:            s.WakePhrase,
		WakeTimeout:           s.WakeTimeout.String(),
		WakePhraseLimit:       s.WakePhraseLimit.String(),
		CommandTimeout:        s.CommandTimeout.String(),
		CommandPhraseLimit:    s.CommandPhraseLimit.String(),
		Calibration:           s.Calibration.String(),
		Recalibration:         s.Recalibration.String(),
		MinFloor:              s.MinFloor,
		AutoStart:             true,
		Source:                SourceDeepgram,
		MicSampleRate:         16000,
		MicSampleRates:        []int{48000, 44100, 32000, 24000},
		DeepgramModel:         "nova-2",
		DeepgramLanguage:      "en-US",
		WhisperModel:          "whisper-1",
		WhisperLanguage:       "en",
		UtteranceDir:          "data/utterances",
		Executor:              ExecutorSystem,
		DBPath:                "data/chanti.db",
		JournalDir:            "data/journal",
		ServerAddr:            "127.0.0.1:8080",
		GoogleCredentialsFile: "./service-account.json",
		GDriveSyncInterval:    "5m",
		LogLevel:              "info",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// Session returns the listening parameters, falling back to defaults for
// invalid durations.
func (c *Config) Session() session.Config {
	s := session.DefaultConfig()
	if strings.TrimSpace(c.WakePhrase) != "" {
		s.WakePhrase = strings.Join(strings.Fields(strings.ToLower(c.WakePhrase)), " ")
	}
	s.WakeTimeout = parseDuration(c.WakeTimeout, s.WakeTimeout)
	s.WakePhraseLimit = parseDuration(c.WakePhraseLimit, s.WakePhraseLimit)
	s.CommandTimeout = parseDuration(c.CommandTimeout, s.CommandTimeout)
	s.CommandPhraseLimit = parseDuration(c.CommandPhraseLimit, s.CommandPhraseLimit)
	s.Calibration = parseDuration(c.Calibration, s.Calibration)
	s.Recalibration = parseDuration(c.Recalibration, s.Recalibration)
	if c.MinFloor > 0 {
		s.MinFloor = c.MinFloor
	}
	return s
}

// Normalize returns the transcript corrections. The built-in corrections
// only apply to the default wake phrase; configured ones always apply and
// win ties against built-ins.
func (c *Config) Normalize() normalize.Config {
	wake := c.Session().WakePhrase
	n := normalize.Config{WakePhrase: wake}
	if wake == normalize.DefaultWakePhrase {
		n = normalize.DefaultConfig()
	}
	if len(c.Corrections) > 0 {
		n.Phrases = append(append([]normalize.Correction(nil), c.Corrections...), n.Phrases...)
	}
	return n
}

// Command returns the app and website tables with configured entries
// overriding the built-in ones.
func (c *Config) Command() command.Config {
	cc := command.DefaultConfig()
	maps.Copy(cc.Apps, lowerKeys(c.Apps))
	maps.Copy(cc.Websites, lowerKeys(c.Websites))
	return cc
}

// ParsedGDriveSyncInterval returns GDriveSyncInterval as a time.Duration,
// falling back to 5m if the value is invalid or not positive.
func (c *Config) ParsedGDriveSyncInterval() time.Duration {
	d := parseDuration(c.GDriveSyncInterval, 5*time.Minute)
	if d == 0 {
		return 5 * time.Minute
	}
	return d
}

// EffectiveSource is the transcript source that will actually run: a cloud
// source without its API key falls back to typed input.
func (c *Config) EffectiveSource() string {
	switch c.Source {
	case SourceStdin:
		return SourceStdin
	case SourceWhisper:
		if c.OpenAIAPIKey == "" && c.WhisperBaseURL == "" {
			return SourceStdin
		}
		return SourceWhisper
	default:
		if c.DeepgramAPIKey == "" {
			return SourceStdin
		}
		return SourceDeepgram
	}
}

// DryRun reports whether actions are only narrated.
func (c *Config) DryRun() bool {
	return c.Executor == ExecutorDryRun
}

// SampleRateCandidates returns a deduplicated ordered list of sample rates
// to try: preferred rate first, then configured alternatives, then defaults.
func (c *Config) SampleRateCandidates() []int {
	hardcoded := []int{16000, 48000, 44100, 32000, 24000}

	combined := make([]int, 0, 1+len(c.MicSampleRates)+len(hardcoded))
	combined = append(combined, c.MicSampleRate)
	combined = append(combined, c.MicSampleRates...)
	combined = append(combined, hardcoded...)

	seen := make(map[int]struct{}, len(combined))
	result := make([]int, 0, len(combined))
	for _, rate := range combined {
		if rate <= 0 {
			continue
		}
		if _, ok := seen[rate]; ok {
			continue
		}
		seen[rate] = struct{}{}
		result = append(result, rate)
	}
	return result
}

func applyEnvOverrides(cfg *Config) {
	strs := map[string]*string{
		"WAKE_PHRASE":             &cfg.WakePhrase,
		"WAKE_TIMEOUT":            &cfg.WakeTimeout,
		"COMMAND_TIMEOUT":         &cfg.CommandTimeout,
		"SOURCE":                  &cfg.Source,
		"DEEPGRAM_MODEL":          &cfg.DeepgramModel,
		"WHISPER_MODEL":           &cfg.WhisperModel,
		"WHISPER_BASE_URL":        &cfg.WhisperBaseURL,
		"EXECUTOR":                &cfg.Executor,
		"DB_PATH":                 &cfg.DBPath,
		"JOURNAL_DIR":             &cfg.JournalDir,
		"SERVER_ADDR":             &cfg.ServerAddr,
		"GDRIVE_FOLDER_ID":        &cfg.GDriveFolderID,
		"GOOGLE_CREDENTIALS_FILE": &cfg.GoogleCredentialsFile,
		"LOG_LEVEL":               &cfg.LogLevel,
	}
	for name, field := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv(EnvPrefix + "MIC_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && rate > 0 {
			cfg.MicSampleRate = rate
		}
	}
	if v := os.Getenv(EnvPrefix + "MIC_SAMPLE_RATES"); v != "" {
		cfg.MicSampleRates = parseSampleRates(v)
	}
	if v := os.Getenv(EnvPrefix + "AUTO_START"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.AutoStart = b
		}
	}
}

func loadSecrets(cfg *Config) {
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	switch cfg.Source {
	case SourceDeepgram, SourceWhisper, SourceStdin:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown source %q; using %s.", cfg.Source, SourceDeepgram))
		cfg.Source = SourceDeepgram
	}
	if cfg.EffectiveSource() != cfg.Source {
		name, key := "Deepgram", EnvPrefix+"DEEPGRAM_API_KEY"
		if cfg.Source == SourceWhisper {
			name, key = "OpenAI", EnvPrefix+"OPENAI_API_KEY"
		}
		warnings = append(warnings, fmt.Sprintf("%s API key not configured; reading commands from standard input. Set %s.", name, key))
	}

	switch cfg.Executor {
	case ExecutorSystem, ExecutorDryRun:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown executor %q; using %s.", cfg.Executor, ExecutorSystem))
		cfg.Executor = ExecutorSystem
	}

	durations := []struct {
		name  string
		value string
	}{
		{"wake_timeout", cfg.WakeTimeout},
		{"wake_phrase_limit", cfg.WakePhraseLimit},
		{"command_timeout", cfg.CommandTimeout},
		{"command_phrase_limit", cfg.CommandPhraseLimit},
		{"calibration", cfg.Calibration},
		{"recalibration", cfg.Recalibration},
		{"gdrive_sync_interval", cfg.GDriveSyncInterval},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v < 0 {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q; using the default.", d.name, d.value))
		}
	}

	if cfg.GDriveFolderID != "" {
		if _, err := os.Stat(cfg.GoogleCredentialsFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("Google credentials file %q not readable; Drive sync is disabled.", cfg.GoogleCredentialsFile))
		}
	}

	return warnings
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func parseSampleRates(raw string) []int {
	parts := strings.Split(raw, ",")
	seen := make(map[int]struct{}, len(parts))
	result := make([]int, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		rate, err := strconv.Atoi(trimmed)
		if err != nil || rate <= 0 {
			continue
		}
		if _, ok := seen[rate]; ok {
			continue
		}
		seen[rate] = struct{}{}
		result = append(result, rate)
	}

	return result
}
