package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Autorun   AutorunConfig
	Timeline  TimelineConfig
	Templates TemplatesConfig
	Assistant AssistantConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// SandboxConfig holds host engine and shell configuration.
type SandboxConfig struct {
	Root          string        `envconfig:"SANDBOX_ROOT"`
	Shell         string        `envconfig:"SANDBOX_SHELL" default:"/bin/sh -i"`
	Ports         []int         `envconfig:"SANDBOX_PORTS" default:"3000,5173,4200,8080,8787"`
	ProbeInterval time.Duration `envconfig:"SANDBOX_PROBE_INTERVAL" default:"500ms"`
	URLTemplate   string        `envconfig:"SANDBOX_URL_TEMPLATE" default:"http://localhost:%d"`
	KeepFiles     bool          `envconfig:"SANDBOX_KEEP_FILES" default:"false"`
	Cols          int           `envconfig:"TERM_COLS" default:"80"`
	Rows          int           `envconfig:"TERM_ROWS" default:"24"`
	Scrollback    int           `envconfig:"TERM_SCROLLBACK" default:"1048576"`
}

// ShellCommand splits Shell into a program and its arguments.
func (s SandboxConfig) ShellCommand() (string, []string, error) {
	words, err := shellquote.Split(s.Shell)
	if err != nil {
		return "", nil, fmt.Errorf("parse SANDBOX_SHELL: %w", err)
	}
	if len(words) == 0 {
		return "", nil, errors.New("SANDBOX_SHELL is empty")
	}
	return words[0], words[1:], nil
}

// AutorunConfig holds the automatic command configuration.
type AutorunConfig struct {
	Command     string        `envconfig:"AUTORUN_COMMAND" default:"npm install && npm run dev"`
	SettleDelay time.Duration `envconfig:"AUTORUN_SETTLE_DELAY" default:"1500ms"`
}

// TimelineConfig paces the simulated transcript.
type TimelineConfig struct {
	InstallMin time.Duration `envconfig:"TIMELINE_INSTALL_MIN" default:"20ms"`
	InstallMax time.Duration `envconfig:"TIMELINE_INSTALL_MAX" default:"80ms"`
	PhasePause time.Duration `envconfig:"TIMELINE_PHASE_PAUSE" default:"1s"`
	StartStep  time.Duration `envconfig:"TIMELINE_START_STEP" default:"300ms"`
}

// TemplatesConfig holds starter catalog configuration.
type TemplatesConfig struct {
	Root    string `envconfig:"TEMPLATES_ROOT"`
	Default string `envconfig:"TEMPLATE" default:"REACT"`
	Watch   bool   `envconfig:"TEMPLATES_WATCH" default:"true"`
}

// AssistantConfig holds the model server configuration.
type AssistantConfig struct {
	Enabled   bool          `envconfig:"ASSISTANT_ENABLED" default:"true"`
	BaseURL   string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	Model     string        `envconfig:"OLLAMA_MODEL" default:"qwen2.5-coder:1.5b"`
	Timeout   time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"60s"`
	RetryMax  int           `envconfig:"ASSISTANT_RETRY_MAX" default:"2"`
	RateLimit float64       `envconfig:"ASSISTANT_RPS" default:"5"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Sandbox: SandboxConfig{
			Shell:         "/bin/sh -i",
			Ports:         []int{3000, 5173, 4200, 8080, 8787},
			ProbeInterval: 500 * time.Millisecond,
			URLTemplate:   "http://localhost:%d",
			Cols:          80,
			Rows:          24,
			Scrollback:    1 << 20,
		},
		Autorun: AutorunConfig{
			Command:     "npm install && npm run dev",
			SettleDelay: 1500 * time.Millisecond,
		},
		Timeline: TimelineConfig{
			InstallMin: 20 * time.Millisecond,
			InstallMax: 80 * time.Millisecond,
			PhasePause: time.Second,
			StartStep:  300 * time.Millisecond,
		},
		Templates: TemplatesConfig{
			Default: "REACT",
			Watch:   true,
		},
		Assistant: AssistantConfig{
			Enabled:   true,
			BaseURL:   "http://localhost:11434",
			Model:     "qwen2.5-coder:1.5b",
			Timeout:   60 * time.Second,
			RetryMax:  2,
			RateLimit: 5,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
