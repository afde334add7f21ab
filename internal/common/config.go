package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is loaded once in main and
// passed down to constructors; nothing below cmd/ reads the environment.
type Config struct {
	LLM      LLMConfig
	Pipeline PipelineConfig
	Sink     SinkConfig
	Database DatabaseConfig
	Server   ServerConfig
	Ingest   IngestConfig
}

// LLMConfig holds completion-service configuration
type LLMConfig struct {
	Provider     string // "openai" | "gemini"
	Model        string
	APIKey       string
	BaseURL      string
	Temperature  float32
	Timeout      time.Duration
	GeminiAPIKey string
	GeminiModel  string
}

// PipelineConfig holds per-document processing knobs
type PipelineConfig struct {
	MaxInputTokens int
	CallTimeout    time.Duration
	Concurrency    int
	Pdftotext      string
}

// SinkConfig holds tabular-store configuration
type SinkConfig struct {
	Backend           string // "sheets" | "xlsx"
	SheetsCredentials string
	SpreadsheetID     string
	RangeName         string
	XLSXPath          string
	XLSXSheet         string
}

// DatabaseConfig holds run-history database configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds daemon server configuration
type ServerConfig struct {
	GRPCAddr string
}

// IngestConfig holds inbox watcher and worker queue configuration
type IngestConfig struct {
	InboxDir       string
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	Debounce       time.Duration
	Reprocess      bool // process files whose content was already recorded
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	callTimeout := getEnvAsDuration("CALL_TIMEOUT", 2*time.Minute)
	return &Config{
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			Model:        getEnv("OPENAI_MODEL", "gpt-4-turbo"),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:  getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			// the per-call context governs; the HTTP client only backs it up
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", callTimeout),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		},
		Pipeline: PipelineConfig{
			MaxInputTokens: getEnvAsInt("MAX_INPUT_TOKENS", 128000),
			CallTimeout:    callTimeout,
			Concurrency:    getEnvAsInt("DOC_CONCURRENCY", 1),
			Pdftotext:      getEnv("PDFTOTEXT", "pdftotext"),
		},
		Sink: SinkConfig{
			Backend:           strings.ToLower(getEnv("SINK_BACKEND", "sheets")),
			SheetsCredentials: getEnv("GOOGLE_SHEETS_CREDENTIALS", ""),
			SpreadsheetID:     getEnv("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
			RangeName:         getEnv("GOOGLE_SHEETS_RANGE_NAME", ""),
			XLSXPath:          getEnv("SINK_XLSX_PATH", ""),
			XLSXSheet:         getEnv("SINK_XLSX_SHEET", "Quotes"),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Ingest: IngestConfig{
			InboxDir:       getEnv("INBOX_DIR", "./inbox"),
			Workers:        getEnvAsInt("WORKERS", 2),
			QueueSize:      getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 10*time.Minute),
			Debounce:       getEnvAsDuration("INBOX_DEBOUNCE", 2*time.Second),
			Reprocess:      getEnvAsBool("INBOX_REPROCESS", false),
		},
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// SheetsConfigured reports whether every Google Sheets setting is present.
func (s SinkConfig) SheetsConfigured() bool {
	return strings.TrimSpace(s.SheetsCredentials) != "" &&
		strings.TrimSpace(s.SpreadsheetID) != "" &&
		strings.TrimSpace(s.RangeName) != ""
}

// Validate validates the loaded configuration. Missing sink settings are not an
// error: the record sink starts disabled instead.
func (c *Config) Validate() error {
	v := NewValidator()
	switch c.LLM.Provider {
	case "openai":
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
		v.Field("OPENAI_MODEL", c.LLM.Model, Required)
	case "gemini":
		v.Field("GEMINI_API_KEY", c.LLM.GeminiAPIKey, Required)
		v.Field("GEMINI_MODEL", c.LLM.GeminiModel, Required)
	default:
		v.Field("LLM_PROVIDER", c.LLM.Provider, OneOf("openai", "gemini"))
	}
	v.Field("MAX_INPUT_TOKENS", c.Pipeline.MaxInputTokens, Positive)
	v.Field("DOC_CONCURRENCY", c.Pipeline.Concurrency, Positive)
	v.Field("SINK_BACKEND", c.Sink.Backend, OneOf("sheets", "xlsx"))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
