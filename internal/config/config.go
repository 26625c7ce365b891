package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    Server    `yaml:"server" envconfig:"SERVER"`
	Security  Security  `yaml:"security" envconfig:"SECURITY"`
	Logging   Logging   `yaml:"logging" envconfig:"LOGGING"`
	Paths     Paths     `yaml:"paths" envconfig:"PATHS"`
	Dashboard Dashboard `yaml:"dashboard" envconfig:"DASHBOARD"`
}

// Server contains HTTP server configuration
type Server struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Security contains CORS and rate limiting configuration
type Security struct {
	AllowedOrigins []string  `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool      `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimit `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimit contains rate limiting configuration
type RateLimit struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Logging contains logging configuration
type Logging struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Paths contains file system paths configuration
type Paths struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	WebDir  string `yaml:"web_dir" envconfig:"WEB_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Dashboard contains presentation defaults
type Dashboard struct {
	TopN        int `yaml:"top_n" envconfig:"TOP_N"`
	TrendMonths int `yaml:"trend_months" envconfig:"TREND_MONTHS"`
	MaxPageSize int `yaml:"max_page_size" envconfig:"MAX_PAGE_SIZE"`
}

// Load loads configuration from environment variables layered over an
// optional YAML config file. Environment variables take precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		*cfg = *fileCfg
	}

	if err := envconfig.Process("CITYSCOPE", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file over the defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return resolvePath(c.Paths.DataDir)
}

// GetWebDir returns the resolved web directory path
func (c *Config) GetWebDir() string {
	return resolvePath(c.Paths.WebDir)
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	return resolvePath(c.Paths.LogsDir)
}

// resolvePath makes relative paths absolute against the working directory
func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	return filepath.Join(wd, p)
}

// EnsureDirectories creates the directories the process writes to
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.GetLogsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be specified")
	}

	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("dashboard top_n must be positive")
	}

	if c.Dashboard.MaxPageSize <= 0 {
		return fmt.Errorf("dashboard max_page_size must be positive")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	return nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: Server{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: Security{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimit{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: Logging{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/cityscope.log",
		},
		Paths: Paths{
			DataDir: "data",
			WebDir:  "web",
			LogsDir: "logs",
		},
		Dashboard: Dashboard{
			TopN:        10,
			TrendMonths: 12,
			MaxPageSize: 500,
		},
	}
}
