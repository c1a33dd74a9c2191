package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Queue       QueueConfig     `toml:"queue"`
	Render      RenderConfig    `toml:"render"`
	Claude      ClaudeConfig    `toml:"claude"`
	Gemini      GeminiConfig    `toml:"gemini"`
	LLM         LLMConfig       `toml:"llm"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Shows       ShowsDirConfig  `toml:"shows"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type QueueConfig struct {
	QueueName         string `toml:"queue_name"`         // Queue name prefix in Badger
	PollInterval      string `toml:"poll_interval"`      // e.g. "1s" - how often the dispatcher polls
	Concurrency       int    `toml:"concurrency"`        // Number of concurrent dispatcher workers
	VisibilityTimeout string `toml:"visibility_timeout"` // e.g. "90m" - message visibility timeout for redelivery
	MaxReceive        int    `toml:"max_receive"`        // Max delivery attempts before dead-letter
	RetryBackoff      string `toml:"retry_backoff"`      // Base backoff between redeliveries, doubles per attempt
	MaxHistory        int    `toml:"max_history"`        // Retained completed/failed queue entries
}

// RenderConfig contains the external render service configuration
type RenderConfig struct {
	ServiceURL     string `toml:"service_url"`     // Base URL of the external render service
	CallbackURL    string `toml:"callback_url"`    // Publicly reachable base URL for render callbacks
	CallbackSecret string `toml:"callback_secret"` // Shared secret expected on inbound callbacks
	RequestTimeout string `toml:"request_timeout"` // Dispatch request timeout (handoff call, long)
	AutoPublish    bool   `toml:"auto_publish"`    // Publish immediately on approval
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for generation (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.8)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for generation (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default: "4s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.8)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the content generation provider
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "claude" or "gemini" (default: "claude")
}

// SchedulerConfig controls the per-show episode scheduler
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`       // Enable cron-driven episode generation
	SyncInterval string `toml:"sync_interval"` // How often show schedules are re-read (default: "1m")
}

// ShowsDirConfig contains configuration for show/workspace seed file loading
type ShowsDirConfig struct {
	Dir string `toml:"dir"` // Directory containing workspace/show seed files (YAML)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings should be exposed in showforge.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Queue: QueueConfig{
			QueueName:         "showforge_render",
			PollInterval:      "1s",
			Concurrency:       1, // One in-flight render per worker process
			VisibilityTimeout: "90m",
			MaxReceive:        2,
			RetryBackoff:      "5s",
			MaxHistory:        200,
		},
		Render: RenderConfig{
			RequestTimeout: "1h", // Handoff call, completion arrives via callback
			AutoPublish:    true,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			RateLimit:   "1s",
			Temperature: 0.8,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			RateLimit:   "4s", // 15 RPM free tier
			Temperature: 0.8,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			SyncInterval: "1m",
		},
		Shows: ShowsDirConfig{
			Dir: "./shows",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SHOWFORGE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SHOWFORGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SHOWFORGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("SHOWFORGE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if queueName := os.Getenv("SHOWFORGE_QUEUE_NAME"); queueName != "" {
		config.Queue.QueueName = queueName
	}
	if pollInterval := os.Getenv("SHOWFORGE_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}
	if concurrency := os.Getenv("SHOWFORGE_QUEUE_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Queue.Concurrency = c
		}
	}
	if visibilityTimeout := os.Getenv("SHOWFORGE_QUEUE_VISIBILITY_TIMEOUT"); visibilityTimeout != "" {
		config.Queue.VisibilityTimeout = visibilityTimeout
	}
	if maxReceive := os.Getenv("SHOWFORGE_QUEUE_MAX_RECEIVE"); maxReceive != "" {
		if mr, err := strconv.Atoi(maxReceive); err == nil {
			config.Queue.MaxReceive = mr
		}
	}

	if serviceURL := os.Getenv("SHOWFORGE_RENDER_SERVICE_URL"); serviceURL != "" {
		config.Render.ServiceURL = serviceURL
	}
	if callbackURL := os.Getenv("SHOWFORGE_RENDER_CALLBACK_URL"); callbackURL != "" {
		config.Render.CallbackURL = callbackURL
	}
	if callbackSecret := os.Getenv("SHOWFORGE_RENDER_CALLBACK_SECRET"); callbackSecret != "" {
		config.Render.CallbackSecret = callbackSecret
	}
	if autoPublish := os.Getenv("SHOWFORGE_RENDER_AUTO_PUBLISH"); autoPublish != "" {
		if ap, err := strconv.ParseBool(autoPublish); err == nil {
			config.Render.AutoPublish = ap
		}
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SHOWFORGE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SHOWFORGE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if provider := os.Getenv("SHOWFORGE_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if enabled := os.Getenv("SHOWFORGE_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if syncInterval := os.Getenv("SHOWFORGE_SCHEDULER_SYNC_INTERVAL"); syncInterval != "" {
		config.Scheduler.SyncInterval = syncInterval
	}

	if showsDir := os.Getenv("SHOWFORGE_SHOWS_DIR"); showsDir != "" {
		config.Shows.Dir = showsDir
	}

	if level := os.Getenv("SHOWFORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ParseDurationOr parses a duration string, falling back to def on error
func ParseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
