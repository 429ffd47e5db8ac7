package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// App Settings
	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO" yaml:"log_level"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" yaml:"log_format"`

	// Engine
	EnginePath   string        `envconfig:"ENGINE_PATH" default:"./xray" yaml:"engine_path"`
	EngineFormat string        `envconfig:"ENGINE_FORMAT" default:"xray" yaml:"engine_format"`
	SettleDelay  time.Duration `envconfig:"SETTLE_DELAY" default:"2s" yaml:"settle_delay"`

	// Probe
	ProbeURL       string        `envconfig:"PROBE_URL" default:"http://ipconfig.io" yaml:"probe_url"`
	ProbeUserAgent string        `envconfig:"PROBE_USER_AGENT" default:"curl/8.5.0" yaml:"probe_user_agent"`
	ConnectTimeout time.Duration `envconfig:"CONNECT_TIMEOUT" default:"10s" yaml:"connect_timeout"`
	ProbeTimeout   time.Duration `envconfig:"PROBE_TIMEOUT" default:"15s" yaml:"probe_timeout"`

	// Batching
	StartPort int `envconfig:"START_PORT" default:"1080" yaml:"start_port"`
	BatchSize int `envconfig:"BATCH_SIZE" default:"40" yaml:"batch_size"`

	// File System Paths
	LedgerPath  string `envconfig:"LEDGER_PATH" default:"working_configs.txt" yaml:"ledger_path"`
	WorkDir     string `envconfig:"WORK_DIR" yaml:"work_dir"`
	ResultsPath string `envconfig:"RESULTS_PATH" yaml:"results_path"`
	GeoIPPath   string `envconfig:"GEOIP_PATH" yaml:"geoip_path"`

	// Optional stages
	Precheck        bool          `envconfig:"PRECHECK" default:"false" yaml:"precheck"`
	PrecheckTimeout time.Duration `envconfig:"PRECHECK_TIMEOUT" default:"2s" yaml:"precheck_timeout"`
	TelegramToken   string        `envconfig:"TELEGRAM_BOT_TOKEN" yaml:"telegram_bot_token"`
	TelegramChatID  string        `envconfig:"TELEGRAM_CHAT_ID" yaml:"telegram_chat_id"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s" yaml:"fetch_timeout"`

	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`
}

// Load reads .env, processes environment variables and, when CONFIG_FILE is
// set, overlays the keys present in that YAML file.
func Load() (*Config, error) {
	// Silently ignore if .env is missing (production might use real ENV vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if cfg.ConfigFile != "" {
		if err := cfg.overlay(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// TelegramEnabled reports whether both notifier credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// Validate checks the settings that would otherwise fail mid-run.
func (c *Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.StartPort < 1 {
		errs = append(errs, fmt.Errorf("start port must be at least 1, got %d", c.StartPort))
	} else if last := c.StartPort + c.BatchSize - 1; last > 65535 {
		errs = append(errs, fmt.Errorf("port range %d-%d exceeds 65535", c.StartPort, last))
	}
	if c.ProbeTimeout <= c.ConnectTimeout {
		errs = append(errs, fmt.Errorf("probe timeout %s must exceed connect timeout %s", c.ProbeTimeout, c.ConnectTimeout))
	}
	switch c.EngineFormat {
	case "xray", "singbox":
	default:
		errs = append(errs, fmt.Errorf("unknown engine format %q", c.EngineFormat))
	}
	return errors.Join(errs...)
}
