package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DataDir string
	Store   string

	AssistantName      string
	TypingDelay        time.Duration
	RateLimitPerMinute int
	SessionMaxIdle     time.Duration

	LogLevel  string
	LogFormat string

	WAAPIURL        string
	WAPhoneNumberID string
	WAAccessToken   string
	WAVerifyToken   string
	// WAVerifyTokenGenerated is set when WA_VERIFY_TOKEN was empty and a
	// random token was made up for this process.
	WAVerifyTokenGenerated bool
	WAAppSecret            string

	SpeechCredentialsFile string
	SpeechLanguage        string
}

// WhatsAppEnabled reports whether the WhatsApp channel has credentials.
func (c *Config) WhatsAppEnabled() bool {
	return c.WAPhoneNumberID != "" && c.WAAccessToken != ""
}

// SpeechEnabled reports whether voice input can be transcribed.
func (c *Config) SpeechEnabled() bool {
	return c.SpeechCredentialsFile != ""
}

func Load() (*Config, error) {
	// .env is optional: in production the variables are usually set directly.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:                  orDefault(getenv("PORT"), "8080"),
		DataDir:               orDefault(getenv("DATA_DIR"), "."),
		Store:                 orDefault(getenv("STORE"), "bolt"),
		AssistantName:         orDefault(getenv("ASSISTANT_NAME"), "Abdullah Assistant"),
		LogLevel:              orDefault(getenv("LOG_LEVEL"), "info"),
		LogFormat:             orDefault(getenv("LOG_FORMAT"), "json"),
		WAAPIURL:              getenv("WA_API_URL"),
		WAPhoneNumberID:       getenv("WA_PHONE_NUMBER_ID"),
		WAAccessToken:         getenv("WA_ACCESS_TOKEN"),
		WAVerifyToken:         getenv("WA_VERIFY_TOKEN"),
		WAAppSecret:           getenv("WA_APP_SECRET"),
		SpeechCredentialsFile: getenv("GOOGLE_APPLICATION_CREDENTIALS_FILE"),
		SpeechLanguage:        orDefault(getenv("SPEECH_LANGUAGE"), "en-US"),
	}

	var err error
	if cfg.TypingDelay, err = parseDuration(getenv, "TYPING_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SessionMaxIdle, err = parseDuration(getenv, "SESSION_MAX_IDLE", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = parseInt(getenv, "RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}

	switch cfg.Store {
	case "bolt", "memory":
	default:
		return nil, fmt.Errorf("STORE must be bolt or memory, got %q", cfg.Store)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	if cfg.WAVerifyToken == "" {
		token, err := randomHex(16)
		if err != nil {
			return nil, fmt.Errorf("generating verify token: %w", err)
		}
		cfg.WAVerifyToken = token
		cfg.WAVerifyTokenGenerated = true
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
