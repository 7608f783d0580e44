package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir               string `json:"data_dir"`
	LogLevel              string `json:"log_level"`
	MaxConcurrent         int    `json:"max_concurrent"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	PromptsPath           string `json:"prompts_path"`
	HTTP                  struct {
		Listen      string `json:"listen"`
		AllowOrigin string `json:"allow_origin"`
	} `json:"http"`
	LLM struct {
		BaseURL                  string  `json:"base_url"`
		APIKey                   string  `json:"api_key" secret:"true"`
		Model                    string  `json:"model"`
		MaxTokens                int     `json:"max_tokens"`
		Temperature              float32 `json:"temperature"`
		MaxQueryChars            int     `json:"max_query_chars"`
		ReferenceTokens          int     `json:"reference_tokens"`
		ClassifierTimeoutSeconds int     `json:"classifier_timeout_seconds"`
	} `json:"llm"`
	Brave struct {
		APIKey            string  `json:"api_key" secret:"true"`
		RequestsPerSecond float64 `json:"requests_per_second"`
		Prefetch          int     `json:"prefetch"`
	} `json:"brave"`
	Telegram struct {
		Token string `json:"token" secret:"true"`
	} `json:"telegram"`
	Client struct {
		ServerURL      string `json:"server_url"`
		PingSchedule   string `json:"ping_schedule"`
		DebounceMillis int    `json:"debounce_ms"`
	} `json:"client"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		DataDir:               filepath.Join(os.Getenv("HOME"), ".timelineai"),
		LogLevel:              "info",
		MaxConcurrent:         8,
		RequestTimeoutSeconds: 45,
	}
	cfg.HTTP.Listen = ":5000"
	cfg.HTTP.AllowOrigin = "*"
	cfg.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	cfg.LLM.Model = "gemini-2.5-flash"
	cfg.LLM.MaxTokens = 8192
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxQueryChars = 500
	cfg.LLM.ReferenceTokens = 1500
	cfg.LLM.ClassifierTimeoutSeconds = 10
	cfg.Brave.RequestsPerSecond = 1
	cfg.Brave.Prefetch = 3
	cfg.Client.ServerURL = "http://localhost:5000"
	cfg.Client.PingSchedule = "@every 14m"
	cfg.Client.DebounceMillis = 300
	return cfg
}

// DefaultPath is where the config lives unless overridden.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".timelineai", "config.json")
}

func Load(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(cfg)

	return cfg, nil
}

// readFile returns the settings stored at path layered over the defaults,
// without environment overrides. A missing file is created with defaults.
func readFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides cfg from the environment (highest precedence).
func applyEnv(cfg *Config) {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if braveKey := os.Getenv("BRAVE_API_KEY"); braveKey != "" {
		cfg.Brave.APIKey = braveKey
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Listen = ":" + port
		}
	}
}

// Validate reports the first setting that prevents the server from
// starting.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required (set GEMINI_API_KEY)")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive")
	}
	if c.LLM.MaxQueryChars <= 0 {
		return fmt.Errorf("llm.max_query_chars must be positive")
	}
	if c.HTTP.Listen == "" {
		return fmt.Errorf("http.listen is required")
	}
	return nil
}

// RequestTimeout is the overall deadline of one pipeline run.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ClassifierTimeout bounds the intent model call.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.LLM.ClassifierTimeoutSeconds) * time.Second
}

// Debounce is how long the client waits for typing to settle.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Client.DebounceMillis) * time.Millisecond
}

// PIDPath is the daemon's PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.DataDir, "timelineai.pid")
}

// Save writes cfg to path atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// GetValue returns the setting stored under key in the file at path.
// Environment overrides are not applied, so the value is what the file
// holds.
func GetValue(path, key string) (Setting, error) {
	cfg, err := readFile(path)
	if err != nil {
		return Setting{}, err
	}
	s, ok := cfg.Lookup(key)
	if !ok {
		return Setting{}, fmt.Errorf("unknown config key: %s", key)
	}
	return s, nil
}

// SetValue parses value for the setting under key and saves the file at
// path.
func SetValue(path, key, value string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return Save(path, cfg)
}
