// -- internal/config/config.go --
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Driver() DriverConfig
	Navigation() NavigationConfig
	Journal() JournalConfig

	// Driver Setters
	SetDriverURL(string)
	SetDriverLogFile(string)

	// Navigation Setters
	SetNavigationDialogTimeout(time.Duration)
	SetNavigationParallel(int)

	// Journal Setter
	SetJournalDSN(string)
}

// Config holds the entire application configuration. CLI flags override
// individual fields through the setter methods after unmarshaling.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	DriverCfg     DriverConfig     `mapstructure:"driver" yaml:"driver"`
	NavigationCfg NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	JournalCfg    JournalConfig    `mapstructure:"journal" yaml:"journal"`
}

// -- Interface Method Implementations (Getters) --

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Driver() DriverConfig         { return c.DriverCfg }
func (c *Config) Navigation() NavigationConfig { return c.NavigationCfg }
func (c *Config) Journal() JournalConfig       { return c.JournalCfg }

// -- Interface Method Implementations (Setters) --

// Driver Setters
func (c *Config) SetDriverURL(u string)     { c.DriverCfg.URL = u }
func (c *Config) SetDriverLogFile(p string) { c.DriverCfg.LogFile = p }

// Navigation Setters
func (c *Config) SetNavigationDialogTimeout(d time.Duration) { c.NavigationCfg.DialogTimeout = d }
func (c *Config) SetNavigationParallel(n int)                { c.NavigationCfg.Parallel = n }

// Journal Setter
func (c *Config) SetJournalDSN(dsn string) { c.JournalCfg.DSN = dsn }

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

// DriverConfig holds the connection settings for the accessibility driver
// server the tool talks to.
type DriverConfig struct {
	// URL is the base address of the WinAppDriver-compatible server.
	URL string `mapstructure:"url" yaml:"url"`
	// ConnectTimeout bounds a single HTTP round trip to the driver.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	// CommandTimeout is handed to the server as the session idle timeout.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	// RequestsPerSecond paces outgoing driver commands. UI servers fall over
	// when hammered, so commands are trickled rather than burst.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// LogFile optionally points at the driver process's own log for the
	// fault watcher to tail.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// NavigationConfig tunes menu navigation and dialog handling.
type NavigationConfig struct {
	// DialogTimeout is how long to poll for an expected dialog before
	// giving up.
	DialogTimeout time.Duration `mapstructure:"dialog_timeout" yaml:"dialog_timeout"`
	// Parallel is the default number of scenarios run concurrently.
	Parallel int `mapstructure:"parallel" yaml:"parallel"`
}

// JournalConfig holds the navigation journal's database connection.
// An empty DSN disables journaling entirely.
type JournalConfig struct {
	DSN string `mapstructure:"dsn" yaml:"-"`
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
	v.SetDefault("logger.service_name", "winpilot-cli")
	v.SetDefault("logger.log_file", "winpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Driver --
	v.SetDefault("driver.url", "http://127.0.0.1:4723")
	v.SetDefault("driver.connect_timeout", "30s")
	v.SetDefault("driver.command_timeout", "120s")
	v.SetDefault("driver.requests_per_second", 20.0)
	v.SetDefault("driver.log_file", "")

	// -- Navigation --
	v.SetDefault("navigation.dialog_timeout", "5s")
	v.SetDefault("navigation.parallel", 1)

	// -- Journal --
	v.SetDefault("journal.dsn", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("journal.dsn", "WINPILOT_JOURNAL_DSN")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the DSN if Unmarshal didn't pick it up
	if cfg.JournalCfg.DSN == "" {
		cfg.JournalCfg.DSN = os.Getenv("WINPILOT_JOURNAL_DSN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.DriverCfg.Validate(); err != nil {
		return fmt.Errorf("driver configuration invalid: %w", err)
	}
	if err := c.NavigationCfg.Validate(); err != nil {
		return fmt.Errorf("navigation configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the driver connection settings.
func (d *DriverConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("driver.url is a required configuration field")
	}
	u, err := url.Parse(d.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("driver.url must be an absolute http or https URL, got %q", d.URL)
	}
	if d.ConnectTimeout <= 0 {
		return fmt.Errorf("driver.connect_timeout must be a positive duration")
	}
	if d.CommandTimeout <= 0 {
		return fmt.Errorf("driver.command_timeout must be a positive duration")
	}
	if d.RequestsPerSecond <= 0 {
		return fmt.Errorf("driver.requests_per_second must be positive")
	}
	return nil
}

// Validate checks the navigation settings.
func (n *NavigationConfig) Validate() error {
	if n.DialogTimeout <= 0 {
		return fmt.Errorf("navigation.dialog_timeout must be a positive duration")
	}
	if n.Parallel <= 0 {
		return fmt.Errorf("navigation.parallel must be a positive integer")
	}
	return nil
}
