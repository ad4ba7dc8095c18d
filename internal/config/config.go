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

var ErrMissingEnv = errors.New("missing required env")

type Config struct {
	Port string

	SpeechKey    string
	SpeechRegion string

	OpenAIKey      string
	OpenAIEndpoint string
	Deployment     string

	SpeechSettleDelay time.Duration
	WSSettleDelay     time.Duration
	PipelineTimeout   time.Duration

	RateLimitPerMinute int
	AllowedOrigins     []string

	VADMode        int
	MaxUtterance   time.Duration
	InitialSilence time.Duration
	EndSilence     time.Duration
}

var required = []string{
	"AZURE_SPEECH_KEY",
	"AZURE_REGION",
	"AZURE_OPENAI_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_DEPLOYMENT_NAME",
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	var missing []string
	for _, k := range required {
		if strings.TrimSpace(getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	cfg := &Config{
		Port:           getenv("PORT"),
		SpeechKey:      getenv("AZURE_SPEECH_KEY"),
		SpeechRegion:   getenv("AZURE_REGION"),
		OpenAIKey:      getenv("AZURE_OPENAI_KEY"),
		OpenAIEndpoint: getenv("AZURE_OPENAI_ENDPOINT"),
		Deployment:     getenv("AZURE_DEPLOYMENT_NAME"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	var err error
	if cfg.SpeechSettleDelay, err = duration(getenv, "SPEECH_SETTLE_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.WSSettleDelay, err = duration(getenv, "WS_SETTLE_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.PipelineTimeout, err = duration(getenv, "PIPELINE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxUtterance, err = duration(getenv, "MAX_UTTERANCE", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.InitialSilence, err = duration(getenv, "INITIAL_SILENCE", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.EndSilence, err = duration(getenv, "END_SILENCE", 800*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = integer(getenv, "RATE_LIMIT_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.VADMode, err = integer(getenv, "VAD_MODE", 2); err != nil {
		return nil, err
	}
	if cfg.VADMode < 0 || cfg.VADMode > 3 {
		return nil, fmt.Errorf("VAD_MODE must be between 0 and 3, got %d", cfg.VADMode)
	}

	cfg.AllowedOrigins = []string{"*"}
	if v := strings.TrimSpace(getenv("ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
