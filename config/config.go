package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the policy analysis pipeline
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug        bool   `mapstructure:"debug"`
	LogLevel     string `mapstructure:"log_level"`
	DefaultTopic string `mapstructure:"default_topic"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains the generation backend configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai only for now
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (c LLMConfig) Validate() error {
	if c.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("llm.api_key (or OPENAI_API_KEY) is required")
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// SearchConfig contains the web search tool configuration
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // serper, tavily
	APIKey     string        `mapstructure:"api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (c SearchConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("search.api_key is required")
	}
	return nil
}

// PipelineConfig controls retry and stage execution behaviour
type PipelineConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BaseDelay    time.Duration `mapstructure:"base_delay"`
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
}

func (c PipelineConfig) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be > 0")
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("pipeline.base_delay must be > 0")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name

	viper.SetDefault("general.default_topic", "Implementation of Universal Basic Income (UBI) in developing economies")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 2000)
	viper.SetDefault("llm.timeout", 90*time.Second)
	viper.SetDefault("search.provider", "serper")
	viper.SetDefault("search.max_results", 3)
	viper.SetDefault("search.timeout", 15*time.Second)
	viper.SetDefault("pipeline.max_attempts", 5)
	viper.SetDefault("pipeline.base_delay", time.Second)
	viper.SetDefault("pipeline.stage_timeout", 3*time.Minute)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                      // bin/
		viper.AddConfigPath(filepath.Join(exeDir, "..")) // repo root
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("WONK")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (WONK_*)

	if err := viper.ReadInConfig(); err != nil {
		// config file is optional: env vars and defaults can carry a full setup
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.Pipeline.Validate(); err != nil {
		panic(err)
	}
	return &config
}

// ValidateCredentials checks the settings a live run cannot do without.
// Kept separate from LoadConfig so tests and offline commands can load
// config without API keys present.
func (c *Config) ValidateCredentials() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}
