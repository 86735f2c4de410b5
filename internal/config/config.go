// Package config handles host configuration parsing and the encrypted
// secret store.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level host configuration.
type Config struct {
	Scripts  ScriptsConfig  `yaml:"scripts"`
	Search   SearchConfig   `yaml:"search"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Window   WindowConfig   `yaml:"window"`
	AI       AIConfig       `yaml:"ai"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

// ScriptsConfig locates user scripts.
type ScriptsConfig struct {
	Dir string `yaml:"dir"` // directory scanned for runnable scripts
}

// SearchConfig bounds the file-search handler.
type SearchConfig struct {
	Roots      []string `yaml:"roots"`
	MaxResults int      `yaml:"max_results"`
}

// ProtocolConfig bounds the wire protocol.
type ProtocolConfig struct {
	MaxLineBytes    int      `yaml:"max_line_bytes"`
	EventBuffer     int      `yaml:"event_buffer"`
	DesyncThreshold int      `yaml:"desync_threshold"`
	RequestTimeout  Duration `yaml:"request_timeout"` // 0 disables UI-forward timeouts
}

// WindowConfig is the static window geometry used headless and in tests;
// platform integrations override it at runtime.
type WindowConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// AIConfig lists the models scripts may query for.
type AIConfig struct {
	Models []ModelConfig `yaml:"models"`
}

// ModelConfig is one entry of the AI model catalog.
type ModelConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
}

// SecretsConfig locates the encrypted secret store.
type SecretsConfig struct {
	File string `yaml:"file"`
}

// Duration parses YAML duration strings like "30s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("parsing duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads the configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Scripts.Dir == "" {
		c.Scripts.Dir = "scripts"
	}
	if len(c.Search.Roots) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			c.Search.Roots = []string{home}
		}
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 50
	}
	if c.Protocol.MaxLineBytes <= 0 {
		c.Protocol.MaxLineBytes = 64 * 1024
	}
	if c.Protocol.EventBuffer <= 0 {
		c.Protocol.EventBuffer = 64
	}
	if c.Protocol.DesyncThreshold <= 0 {
		c.Protocol.DesyncThreshold = 5
	}
	if c.Window.Width <= 0 {
		c.Window.Width = 768
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 480
	}
	if c.Secrets.File == "" {
		c.Secrets.File = "secrets.yaml.age"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Protocol.MaxLineBytes < 1024 {
		return fmt.Errorf("protocol.max_line_bytes must be at least 1024, got %d", c.Protocol.MaxLineBytes)
	}
	if c.Protocol.RequestTimeout < 0 {
		return fmt.Errorf("protocol.request_timeout must not be negative")
	}
	for i, m := range c.AI.Models {
		if m.Name == "" {
			return fmt.Errorf("ai.models[%d]: name is required", i)
		}
	}
	return nil
}
