// Package config loads sandsh settings from a YAML file, an optional .env
// file and SANDSH_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/telnet2/go-practice/go-sandsh"
)

// DefaultFile is read when Load gets no explicit path and the file exists.
const DefaultFile = "sandsh.yaml"

// Config is the complete sandsh configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the host API.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	EnableCORS bool   `yaml:"enable_cors"`
	// SessionIdleTimeout removes sessions unused for this long. Zero keeps
	// sessions until they are removed explicitly.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// SandboxConfig configures the filesystem and defaults of the executor.
type SandboxConfig struct {
	Mode        string        `yaml:"mode"`
	Root        string        `yaml:"root"`
	Scratch     string        `yaml:"scratch"`
	Home        string        `yaml:"home"`
	CPUInterval time.Duration `yaml:"cpu_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			EnableCORS: true,
		},
		Sandbox: SandboxConfig{
			Mode:        string(sandsh.FsModeOS),
			Scratch:     sandsh.DefaultScratchDir,
			CPUInterval: sandsh.DefaultCPUInterval,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// DefaultFile is used if present. Values from .env files are exported to the
// process environment before SANDSH_* overrides are applied.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"SANDSH_ADDR":      &cfg.Server.Addr,
		"SANDSH_MODE":      &cfg.Sandbox.Mode,
		"SANDSH_ROOT":      &cfg.Sandbox.Root,
		"SANDSH_SCRATCH":   &cfg.Sandbox.Scratch,
		"SANDSH_HOME":      &cfg.Sandbox.Home,
		"SANDSH_LOG_LEVEL": &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"SANDSH_LOG_PRETTY": &cfg.Log.Pretty,
		"SANDSH_CORS":       &cfg.Server.EnableCORS,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"SANDSH_SESSION_IDLE_TIMEOUT": &cfg.Server.SessionIdleTimeout,
		"SANDSH_CPU_INTERVAL":         &cfg.Sandbox.CPUInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	mode, err := sandsh.ParseFsMode(c.Sandbox.Mode)
	if err != nil {
		return err
	}
	if (mode == sandsh.FsModeJail || mode == sandsh.FsModeOverlay) && c.Sandbox.Root == "" {
		return fmt.Errorf("sandbox mode %s requires a root directory", mode)
	}
	if c.Sandbox.CPUInterval < 0 {
		return fmt.Errorf("cpu_interval must not be negative")
	}
	if c.Server.SessionIdleTimeout < 0 {
		return fmt.Errorf("session_idle_timeout must not be negative")
	}
	return nil
}
