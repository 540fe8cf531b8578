package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Extract  ExtractConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds run journal configuration. An empty DSN disables the journal.
type DatabaseConfig struct {
	Driver           string // "sqlite" | "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ExtractConfig holds document extraction configuration
type ExtractConfig struct {
	Pdftotext        string
	FetchTimeout     time.Duration
	ProxyURL         string // relay prefix, the escaped target URL is appended
	MaxDocumentBytes int64
}

// LLMConfig holds generation client configuration
type LLMConfig struct {
	Provider     string // "gemini" | "openai" | "http"
	APIKey       string
	BaseURL      string
	Models       []string // fallback order
	Temperature  float32
	CallTimeout  time.Duration
	MaxRetries   int
	InitialDelay time.Duration
	RateLimit    float64 // calls per second, 0 disables
	RateBurst    int
}

// PipelineConfig holds orchestrator tuning
type PipelineConfig struct {
	AnalyzeDelay   time.Duration
	MaxPromptChars int
}

// QueueConfig holds batch worker pool configuration
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // "json" | "text"
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
)

var defaultModels = map[string][]string{
	ProviderGemini: {"gemini-2.0-flash", "gemini-1.5-flash"},
	ProviderOpenAI: {"gpt-4o-mini", "gpt-4o"},
}

// DefaultConfig returns the built-in defaults before any file or env overlay.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Extract: ExtractConfig{
			Pdftotext:        "pdftotext",
			FetchTimeout:     30 * time.Second,
			MaxDocumentBytes: 50 << 20,
		},
		LLM: LLMConfig{
			Provider:     ProviderGemini,
			CallTimeout:  60 * time.Second,
			MaxRetries:   3,
			InitialDelay: time.Second,
			RateBurst:    1,
		},
		Pipeline: PipelineConfig{
			MaxPromptChars: 100_000,
		},
		Queue: QueueConfig{
			Workers:        2,
			Size:           64,
			ProcessTimeout: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return applyEnv(DefaultConfig())
}

// LoadConfigFile reads a YAML file over the defaults, then applies environment overrides.
// An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	base := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := overlayYAML(&base, b); err != nil {
			return nil, NewAppError("CONFIG_ERROR", "parse config file "+path, err)
		}
	}
	return applyEnv(base), nil
}

func applyEnv(base Config) *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", base.Database.Driver),
			DSN:              getEnv("DB_URL", base.Database.DSN),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", base.Database.MaxConns),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", base.Database.MinConns),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", base.Database.MaxConnLifetime),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", base.Database.MaxConnIdleTime),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", base.Database.DialTimeout),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", base.Database.StatementTimeout),
		},
		Extract: ExtractConfig{
			Pdftotext:        getEnv("PDFTOTEXT_BIN", base.Extract.Pdftotext),
			FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", base.Extract.FetchTimeout),
			ProxyURL:         getEnv("FETCH_PROXY_URL", base.Extract.ProxyURL),
			MaxDocumentBytes: int64(getEnvAsInt("MAX_DOCUMENT_BYTES", int(base.Extract.MaxDocumentBytes))),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("QUIZGEN_PROVIDER", base.LLM.Provider)),
			BaseURL:      getEnv("LLM_BASE_URL", base.LLM.BaseURL),
			Models:       getEnvAsList("LLM_MODELS", base.LLM.Models),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", base.LLM.Temperature),
			CallTimeout:  getEnvAsDuration("LLM_CALL_TIMEOUT", base.LLM.CallTimeout),
			MaxRetries:   getEnvAsInt("LLM_MAX_RETRIES", base.LLM.MaxRetries),
			InitialDelay: getEnvAsDuration("LLM_INITIAL_DELAY", base.LLM.InitialDelay),
			RateLimit:    float64(getEnvAsFloat32("LLM_RATE_LIMIT", float32(base.LLM.RateLimit))),
			RateBurst:    getEnvAsInt("LLM_RATE_BURST", base.LLM.RateBurst),
		},
		Pipeline: PipelineConfig{
			AnalyzeDelay:   getEnvAsDuration("ANALYZE_DELAY", base.Pipeline.AnalyzeDelay),
			MaxPromptChars: getEnvAsInt("MAX_PROMPT_CHARS", base.Pipeline.MaxPromptChars),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", base.Queue.Workers),
			Size:           getEnvAsInt("QUEUE_SIZE", base.Queue.Size),
			ProcessTimeout: getEnvAsDuration("QUEUE_TIMEOUT", base.Queue.ProcessTimeout),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", base.Log.Level),
			Format: getEnv("LOG_FORMAT", base.Log.Format),
		},
	}

	// provider specific key wins over the generic one
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", base.LLM.APIKey)
	switch cfg.LLM.Provider {
	case ProviderGemini:
		cfg.LLM.APIKey = getEnv("GEMINI_API_KEY", cfg.LLM.APIKey)
	case ProviderOpenAI:
		cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	}
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = append([]string(nil), defaultModels[cfg.LLM.Provider]...)
	}
	return cfg
}

// fileConfig mirrors Config for YAML input; durations are Go duration strings.
type fileConfig struct {
	Database struct {
		Driver           string `yaml:"driver"`
		DSN              string `yaml:"dsn"`
		MaxConns         int32  `yaml:"max_conns"`
		MinConns         int32  `yaml:"min_conns"`
		StatementTimeout string `yaml:"statement_timeout"`
	} `yaml:"database"`
	Extract struct {
		Pdftotext        string `yaml:"pdftotext"`
		FetchTimeout     string `yaml:"fetch_timeout"`
		ProxyURL         string `yaml:"proxy_url"`
		MaxDocumentBytes int64  `yaml:"max_document_bytes"`
	} `yaml:"extract"`
	LLM struct {
		Provider     string   `yaml:"provider"`
		APIKey       string   `yaml:"api_key"`
		BaseURL      string   `yaml:"base_url"`
		Models       []string `yaml:"models"`
		Temperature  *float32 `yaml:"temperature"`
		CallTimeout  string   `yaml:"call_timeout"`
		MaxRetries   int      `yaml:"max_retries"`
		InitialDelay string   `yaml:"initial_delay"`
		RateLimit    float64  `yaml:"rate_limit"`
		RateBurst    int      `yaml:"rate_burst"`
	} `yaml:"llm"`
	Pipeline struct {
		AnalyzeDelay   string `yaml:"analyze_delay"`
		MaxPromptChars int    `yaml:"max_prompt_chars"`
	} `yaml:"pipeline"`
	Queue struct {
		Workers        int    `yaml:"workers"`
		Size           int    `yaml:"size"`
		ProcessTimeout string `yaml:"process_timeout"`
	} `yaml:"queue"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func overlayYAML(cfg *Config, b []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return err
	}

	setString(&cfg.Database.Driver, fc.Database.Driver)
	setString(&cfg.Database.DSN, fc.Database.DSN)
	if fc.Database.MaxConns > 0 {
		cfg.Database.MaxConns = fc.Database.MaxConns
	}
	if fc.Database.MinConns > 0 {
		cfg.Database.MinConns = fc.Database.MinConns
	}

	setString(&cfg.Extract.Pdftotext, fc.Extract.Pdftotext)
	setString(&cfg.Extract.ProxyURL, fc.Extract.ProxyURL)
	if fc.Extract.MaxDocumentBytes > 0 {
		cfg.Extract.MaxDocumentBytes = fc.Extract.MaxDocumentBytes
	}

	setString(&cfg.LLM.Provider, fc.LLM.Provider)
	setString(&cfg.LLM.APIKey, fc.LLM.APIKey)
	setString(&cfg.LLM.BaseURL, fc.LLM.BaseURL)
	if len(fc.LLM.Models) > 0 {
		cfg.LLM.Models = fc.LLM.Models
	}
	if fc.LLM.Temperature != nil {
		cfg.LLM.Temperature = *fc.LLM.Temperature
	}
	if fc.LLM.MaxRetries > 0 {
		cfg.LLM.MaxRetries = fc.LLM.MaxRetries
	}
	if fc.LLM.RateLimit > 0 {
		cfg.LLM.RateLimit = fc.LLM.RateLimit
	}
	if fc.LLM.RateBurst > 0 {
		cfg.LLM.RateBurst = fc.LLM.RateBurst
	}

	if fc.Pipeline.MaxPromptChars > 0 {
		cfg.Pipeline.MaxPromptChars = fc.Pipeline.MaxPromptChars
	}
	if fc.Queue.Workers > 0 {
		cfg.Queue.Workers = fc.Queue.Workers
	}
	if fc.Queue.Size > 0 {
		cfg.Queue.Size = fc.Queue.Size
	}
	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"database.statement_timeout", fc.Database.StatementTimeout, &cfg.Database.StatementTimeout},
		{"extract.fetch_timeout", fc.Extract.FetchTimeout, &cfg.Extract.FetchTimeout},
		{"llm.call_timeout", fc.LLM.CallTimeout, &cfg.LLM.CallTimeout},
		{"llm.initial_delay", fc.LLM.InitialDelay, &cfg.LLM.InitialDelay},
		{"pipeline.analyze_delay", fc.Pipeline.AnalyzeDelay, &cfg.Pipeline.AnalyzeDelay},
		{"queue.process_timeout", fc.Queue.ProcessTimeout, &cfg.Queue.ProcessTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "an API key is required for provider "+c.LLM.Provider, ErrInvalidInput)
		}
	case ProviderHTTP:
		if c.LLM.BaseURL == "" {
			return NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required for the http provider", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown provider "+c.LLM.Provider, ErrInvalidInput)
	}
	if len(c.LLM.Models) == 0 {
		return NewAppError("CONFIG_ERROR", "LLM_MODELS is required", ErrInvalidInput)
	}
	if c.LLM.MaxRetries < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_RETRIES must be at least 1", ErrInvalidInput)
	}
	if c.Database.DSN != "" && c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	return nil
}
