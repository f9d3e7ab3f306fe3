package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	BaseURL       string
	// Telegram
	BotToken    string
	Secret      string
	WebhookPath string
	// OpenAI
	OpenAIAPIKey string
	Model        string
	STTModel     string
	TTSModel     string
	TTSVoice     string
	// ElevenLabs, preferred for speech when set
	ElevenAPIKey  string
	ElevenVoiceID string
	ElevenModel   string
	// Answers
	PromptsFile       string
	ProMinWords       int
	ProMaxWords       int
	GenerationTimeout time.Duration
	// Voice
	VoiceInput      bool
	STTTimeout      time.Duration
	TTSTimeout      time.Duration
	DownloadTimeout time.Duration
	TTSMaxChars     int
	FFmpegPath      string
	// Sessions
	SessionStore    string
	RedisURL        string
	SessionCacheTTL time.Duration
	SessionTTL      time.Duration
	// Menu and language
	MenuKeyboard   string
	MenuCollapse   bool
	LangHysteresis bool
	// Database
	DatabaseURL string
	// PayPal
	PayPalClientID string
	PayPalSecret   string
	PayPalMode     string
	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the environment, after an optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	var errs []error
	p := parser{errs: &errs}

	cfg := Config{
		Port:          getEnvDefault("PORT", "8080"),
		AllowedOrigin: getEnvDefault("ALLOWED_ORIGIN", "*"),
		BaseURL:       strings.TrimRight(os.Getenv("BASE_URL"), "/"),

		BotToken:    firstEnv("BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
		Secret:      firstEnv("SECRET_TOKEN", "WEBHOOK_SECRET"),
		WebhookPath: getEnvDefault("WEBHOOK_PATH", "/telegram/webhook"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		Model:        getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		STTModel:     getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		TTSModel:     getEnvDefault("OPENAI_TTS_MODEL", "tts-1"),
		TTSVoice:     getEnvDefault("OPENAI_TTS_VOICE", "alloy"),

		ElevenAPIKey:  os.Getenv("ELEVEN_API_KEY"),
		ElevenVoiceID: os.Getenv("ELEVEN_VOICE_ID"),
		ElevenModel:   getEnvDefault("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),

		PromptsFile:       os.Getenv("PROMPTS_FILE"),
		ProMinWords:       p.integer("PRO_MIN_WORDS", 800),
		ProMaxWords:       p.integer("PRO_MAX_WORDS", 1200),
		GenerationTimeout: p.duration("GENERATION_TIMEOUT", 20*time.Second),

		VoiceInput:      p.boolean("VOICE_INPUT_ENABLED", true),
		STTTimeout:      p.duration("STT_TIMEOUT", 30*time.Second),
		TTSTimeout:      p.duration("TTS_TIMEOUT", 30*time.Second),
		DownloadTimeout: p.duration("DOWNLOAD_TIMEOUT", 15*time.Second),
		TTSMaxChars:     p.integer("TTS_MAX_CHARS", 1000),
		FFmpegPath:      getEnvDefault("FFMPEG_PATH", "ffmpeg"),

		SessionStore:    strings.ToLower(getEnvDefault("SESSION_STORE", "memory")),
		RedisURL:        os.Getenv("REDIS_URL"),
		SessionCacheTTL: p.duration("SESSION_CACHE_TTL", 10*time.Minute),
		SessionTTL:      p.duration("SESSION_TTL", 720*time.Hour),

		MenuKeyboard:   getEnvDefault("MENU_KEYBOARD", "always"),
		MenuCollapse:   p.boolean("MENU_COLLAPSE", true),
		LangHysteresis: p.boolean("LANG_HYSTERESIS", true),

		DatabaseURL: os.Getenv("DB_URL"),

		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_SECRET"),
		PayPalMode:     getEnvDefault("PAYPAL_MODE", "sandbox"),

		LogLevel:  getEnvDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvDefault("LOG_FORMAT", "json"),
	}

	if cfg.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if cfg.Secret == "" {
		errs = append(errs, errors.New("SECRET_TOKEN is required"))
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", cfg.Port))
	}
	if cfg.ProMinWords > cfg.ProMaxWords {
		errs = append(errs, fmt.Errorf("PRO_MIN_WORDS (%d) exceeds PRO_MAX_WORDS (%d)", cfg.ProMinWords, cfg.ProMaxWords))
	}
	switch cfg.SessionStore {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", cfg.SessionStore))
	}
	return cfg, errors.Join(errs...)
}

// PayPalEnabled reports whether checkout can be offered.
func (c Config) PayPalEnabled() bool {
	return c.PayPalClientID != "" && c.PayPalSecret != "" && c.BaseURL != ""
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// parser collects malformed values instead of failing on the first one.
type parser struct {
	errs *[]error
}

func (p parser) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*p.errs = append(*p.errs, fmt.Errorf("%s must be a positive integer, got %q", key, v))
		return def
	}
	return n
}

func (p parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*p.errs = append(*p.errs, fmt.Errorf("%s must be a positive duration, got %q", key, v))
		return def
	}
	return d
}

func (p parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	*p.errs = append(*p.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	return def
}
