// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Backend names accepted by browser.backend.
const (
	BackendCDP       = "cdp"
	BackendWebDriver = "webdriver"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Retry() RetryConfig
	Browser() BrowserConfig
	WebDriver() WebDriverConfig
	Script() ScriptConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	RetryCfg     RetryConfig     `mapstructure:"retry" yaml:"retry"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	WebDriverCfg WebDriverConfig `mapstructure:"webdriver" yaml:"webdriver"`
	ScriptCfg    ScriptConfig    `mapstructure:"script" yaml:"script"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Retry() RetryConfig         { return c.RetryCfg }
func (c *Config) Browser() BrowserConfig     { return c.BrowserCfg }
func (c *Config) WebDriver() WebDriverConfig { return c.WebDriverCfg }
func (c *Config) Script() ScriptConfig       { return c.ScriptCfg }

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

// RetryConfig is the fixed-interval retry policy applied to every sub-step.
type RetryConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Count    int           `mapstructure:"count" yaml:"count"`
}

// BrowserConfig holds settings for the automated browser.
type BrowserConfig struct {
	Backend           string        `mapstructure:"backend" yaml:"backend"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU        bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	LocateTimeout     time.Duration `mapstructure:"locate_timeout" yaml:"locate_timeout"`
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" yaml:"visibility_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// WebDriverConfig points the webdriver backend at a running WebDriver server.
type WebDriverConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	BrowserName string `mapstructure:"browser_name" yaml:"browser_name"`
}

// ScriptConfig holds defaults for the script runner.
type ScriptConfig struct {
	ReportPath string `mapstructure:"report_path" yaml:"report_path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
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
	v.SetDefault("logger.service_name", "rp1")
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

	// -- Retry --
	v.SetDefault("retry.interval", "1s")
	v.SetDefault("retry.count", 60)

	// -- Browser --
	v.SetDefault("browser.backend", BackendCDP)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.locate_timeout", "5s")
	v.SetDefault("browser.visibility_timeout", "5s")
	v.SetDefault("browser.navigation_timeout", "90s")

	// -- WebDriver --
	v.SetDefault("webdriver.url", "http://localhost:4444")
	v.SetDefault("webdriver.browser_name", "firefox")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	_ = v.BindEnv("webdriver.url", "RP1_WEBDRIVER_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every file system path.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.LoggerCfg.LogFile, &c.BrowserCfg.UserDataDir, &c.ScriptCfg.ReportPath} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.RetryCfg.Validate(); err != nil {
		return fmt.Errorf("retry configuration invalid: %w", err)
	}
	switch strings.ToLower(c.BrowserCfg.Backend) {
	case BackendCDP:
	case BackendWebDriver:
		if c.WebDriverCfg.URL == "" {
			return fmt.Errorf("webdriver.url is required when browser.backend is %q", BackendWebDriver)
		}
	default:
		return fmt.Errorf("browser.backend must be %q or %q, got %q", BackendCDP, BackendWebDriver, c.BrowserCfg.Backend)
	}
	if c.BrowserCfg.LocateTimeout < 0 || c.BrowserCfg.VisibilityTimeout < 0 {
		return fmt.Errorf("browser timeouts must not be negative")
	}
	return nil
}

// Validate checks the retry policy.
func (r *RetryConfig) Validate() error {
	if r.Interval <= 0 {
		return fmt.Errorf("retry.interval must be a positive duration")
	}
	if r.Count < 0 {
		return fmt.Errorf("retry.count must not be negative")
	}
	return nil
}
