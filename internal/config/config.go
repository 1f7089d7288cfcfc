package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Analysis
	TargetYear  int    `mapstructure:"target_year" yaml:"target_year" validate:"gte=1900,lte=2100"`
	YearColumn  string `mapstructure:"year_column" yaml:"year_column"`
	SampleSize  int    `mapstructure:"sample_size" yaml:"sample_size" validate:"gte=1"`
	SampleSeed  int64  `mapstructure:"sample_seed" yaml:"sample_seed"`
	PreviewRows int    `mapstructure:"preview_rows" yaml:"preview_rows" validate:"gte=1,lte=1000"`

	// Loading
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" validate:"delimiter"`
	SheetName string `mapstructure:"sheet_name" yaml:"sheet_name"`

	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes" validate:"gte=1"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"loglevel"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	// HTTP server
	ServerAddr          string `mapstructure:"server_addr" yaml:"server_addr" validate:"required"`
	MaxUploadMB         int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"gte=1,lte=1024"`
	UploadRatePerMinute int    `mapstructure:"upload_rate_per_minute" yaml:"upload_rate_per_minute" validate:"gte=1"`
}

// Default returns the configuration used when nothing is set.
func Default() *Global {
	return &Global{
		TargetYear:          2020,
		SampleSize:          2000,
		SampleSeed:          42,
		PreviewRows:         5,
		Delimiter:           "auto",
		CacheTTLMinutes:     60,
		LogLevel:            "info",
		LogFormat:           "text",
		ServerAddr:          ":8080",
		MaxUploadMB:         64,
		UploadRatePerMinute: 30,
	}
}

// CacheTTL is the lifetime of cached datasets and results.
func (c *Global) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// DelimiterRune maps the delimiter setting to a rune; 0 means auto-detect.
func (c *Global) DelimiterRune() rune {
	return delimiters[c.Delimiter]
}

var delimiters = map[string]rune{
	"auto":      0,
	"":          0,
	"comma":     ',',
	"semicolon": ';',
	"tab":       '\t',
}

// DefaultPath returns ~/.woescope/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".woescope", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.woescope/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := Validate(c); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("WOESCOPE")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("target_year", d.TargetYear)
	v.SetDefault("year_column", d.YearColumn)
	v.SetDefault("sample_size", d.SampleSize)
	v.SetDefault("sample_seed", d.SampleSeed)
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("cache_ttl_minutes", d.CacheTTLMinutes)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("server_addr", d.ServerAddr)
	v.SetDefault("max_upload_mb", d.MaxUploadMB)
	v.SetDefault("upload_rate_per_minute", d.UploadRatePerMinute)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".woescope"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit file that exists must parse
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		if _, statErr := os.Stat(cfgFile); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
