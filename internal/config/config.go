// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	Browser() BrowserConfig
	LLM() LLMConfig
	Suite() SuiteConfig

	// Agent Setters
	SetAgentMaxSteps(int)
	SetAgentSettleDelayMs(int)
	SetAgentObservationMode(string)

	// Browser Setters
	SetBrowserHeadless(bool)

	// LLM Setters
	SetLLMProvider(LLMProvider)
	SetLLMModel(string)

	// Suite Setters
	SetSuiteConcurrency(int)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	AgentCfg   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	LLMCfg     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	SuiteCfg   SuiteConfig   `mapstructure:"suite" yaml:"suite"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig     { return c.AgentCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) LLM() LLMConfig         { return c.LLMCfg }
func (c *Config) Suite() SuiteConfig     { return c.SuiteCfg }

func (c *Config) SetAgentMaxSteps(n int)           { c.AgentCfg.MaxSteps = n }
func (c *Config) SetAgentSettleDelayMs(ms int)     { c.AgentCfg.SettleDelayMs = ms }
func (c *Config) SetAgentObservationMode(m string) { c.AgentCfg.ObservationMode = m }
func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetLLMProvider(p LLMProvider)     { c.LLMCfg.Provider = p }
func (c *Config) SetLLMModel(m string)             { c.LLMCfg.Model = m }
func (c *Config) SetSuiteConcurrency(n int)        { c.SuiteCfg.Concurrency = n }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig controls the bounded agent loop.
type AgentConfig struct {
	MaxSteps        int    `mapstructure:"max_steps" yaml:"max_steps"`
	SettleDelayMs   int    `mapstructure:"settle_delay_ms" yaml:"settle_delay_ms"`
	ObservationMode string `mapstructure:"observation_mode" yaml:"observation_mode"`
	// SubmitAfterFill presses Enter on an element after filling it.
	SubmitAfterFill bool `mapstructure:"submit_after_fill" yaml:"submit_after_fill"`
	// RunTimeout bounds a whole run. Zero disables the bound.
	RunTimeout time.Duration `mapstructure:"run_timeout" yaml:"run_timeout"`
}

// SettleDelay returns the settle delay as a duration.
func (a AgentConfig) SettleDelay() time.Duration {
	return time.Duration(a.SettleDelayMs) * time.Millisecond
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// ExecPath overrides browser discovery.
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOllama LLMProvider = "ollama"
)

// LLMConfig configures the instruction oracle.
type LLMConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	// RequestsPerSecond throttles oracle calls across all runs. Zero
	// disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// SuiteConfig controls batch execution of specifications.
type SuiteConfig struct {
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
	Output      string `mapstructure:"output" yaml:"output"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "speckled")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	v.SetDefault("agent.max_steps", 10)
	v.SetDefault("agent.settle_delay_ms", 500)
	v.SetDefault("agent.observation_mode", "text")
	v.SetDefault("agent.submit_after_fill", true)
	v.SetDefault("agent.run_timeout", "0s")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.exec_path", "")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderGemini))
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.requests_per_second", 1.0)
	v.SetDefault("llm.burst", 1)

	// -- Suite --
	v.SetDefault("suite.concurrency", 2)
	v.SetDefault("suite.output", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The Gemini SDK convention is honored when no prefixed key is set.
	_ = v.BindEnv("llm.api_key", "SPECKLED_LLM_API_KEY", "GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.AgentCfg.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.LLMCfg.Validate(); err != nil {
		return fmt.Errorf("llm configuration invalid: %w", err)
	}
	if c.SuiteCfg.Concurrency <= 0 {
		return fmt.Errorf("suite.concurrency must be a positive integer")
	}
	return nil
}

// Validate checks the agent loop settings.
func (a *AgentConfig) Validate() error {
	if a.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be a positive integer")
	}
	if a.SettleDelayMs < 0 {
		return fmt.Errorf("settle_delay_ms must not be negative")
	}
	if a.ObservationMode != "text" && a.ObservationMode != "image" {
		return fmt.Errorf("observation_mode must be \"text\" or \"image\", got %q", a.ObservationMode)
	}
	if a.RunTimeout < 0 {
		return fmt.Errorf("run_timeout must not be negative")
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.ViewportWidth <= 0 || b.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if b.NavigationTimeout < 0 || b.ActionTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Validate checks the oracle settings. A missing API key is reported by
// the client factory since commands like version never need one.
func (l *LLMConfig) Validate() error {
	switch l.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider %q", l.Provider)
	}
	if l.Model == "" {
		return fmt.Errorf("model is required")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	if l.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if l.RequestsPerSecond > 0 && l.Burst <= 0 {
		return fmt.Errorf("burst must be positive when throttling is enabled")
	}
	return nil
}
