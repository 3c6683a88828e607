package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	AppName        = "lockpass"
	ConfigFileName = "config.yaml"
	RegistryFile   = "registry.db"
)

// Config holds all lockpass settings
type Config struct {
	// VaultDir is where -d <name> vaults are resolved. Empty means the working directory.
	VaultDir string `yaml:"vault_dir"`

	// RegistryPath is the bbolt database recording known vaults
	RegistryPath string `yaml:"registry_path"`

	// FormatVersion selects the frame written on save (0 = bare, 1 = with header)
	FormatVersion int `yaml:"format_version"`

	// Keyring enables password lookup in the OS keyring
	Keyring bool `yaml:"keyring"`

	Log LogConfig `yaml:"log"`

	sources  map[string]string
	filePath string
}

// LogConfig controls the session log
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// fileConfig mirrors Config with pointers so absent keys can be told apart
type fileConfig struct {
	VaultDir      *string `yaml:"vault_dir"`
	RegistryPath  *string `yaml:"registry_path"`
	FormatVersion *int    `yaml:"format_version"`
	Keyring       *bool   `yaml:"keyring"`
	Log           *struct {
		Level *string `yaml:"level"`
		File  *string `yaml:"file"`
	} `yaml:"log"`
}

func attributeNames() []string {
	return []string{"vault_dir", "registry_path", "format_version", "keyring", "log.level", "log.file"}
}

// Default returns the built-in configuration
func Default() *Config {
	c := &Config{
		RegistryPath: filepath.Join(stateDir(), RegistryFile),
		Keyring:      true,
		Log:          LogConfig{Level: "info"},
		sources:      make(map[string]string),
	}
	for _, name := range attributeNames() {
		c.sources[name] = "default"
	}
	return c
}

// DefaultPath returns the config file location: $LOCKPASS_CONFIG or
// $XDG_CONFIG_HOME/lockpass/config.yaml
func DefaultPath() string {
	if p := os.Getenv("LOCKPASS_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if d, err := os.UserConfigDir(); err == nil {
			dir = d
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, AppName, ConfigFileName)
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// Load reads the config file at path (if present) and the environment.
// A missing file is not an error; an unparsable one is.
func Load(path string) (*Config, error) {
	c := Default()
	c.filePath = path

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			c.applyFileConfig(&fc)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	c.applyEnvConfig()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyFileConfig(fc *fileConfig) {
	if fc.VaultDir != nil {
		c.VaultDir = expandHome(*fc.VaultDir)
		c.sources["vault_dir"] = "file"
	}
	if fc.RegistryPath != nil {
		c.RegistryPath = expandHome(*fc.RegistryPath)
		c.sources["registry_path"] = "file"
	}
	if fc.FormatVersion != nil {
		c.FormatVersion = *fc.FormatVersion
		c.sources["format_version"] = "file"
	}
	if fc.Keyring != nil {
		c.Keyring = *fc.Keyring
		c.sources["keyring"] = "file"
	}
	if fc.Log != nil {
		if fc.Log.Level != nil {
			c.Log.Level = *fc.Log.Level
			c.sources["log.level"] = "file"
		}
		if fc.Log.File != nil {
			c.Log.File = expandHome(*fc.Log.File)
			c.sources["log.file"] = "file"
		}
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("LOCKPASS_VAULT_DIR"); val != "" {
		c.VaultDir = expandHome(val)
		c.sources["vault_dir"] = "environment"
	}
	if val := os.Getenv("LOCKPASS_REGISTRY"); val != "" {
		c.RegistryPath = expandHome(val)
		c.sources["registry_path"] = "environment"
	}
	if val := os.Getenv("LOCKPASS_FORMAT_VERSION"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.FormatVersion = i
			c.sources["format_version"] = "environment"
		}
	}
	if val := os.Getenv("LOCKPASS_KEYRING"); val != "" {
		c.Keyring = val == "true" || val == "1"
		c.sources["keyring"] = "environment"
	}
	if val := os.Getenv("LOCKPASS_LOG_LEVEL"); val != "" {
		c.Log.Level = val
		c.sources["log.level"] = "environment"
	}
	if val := os.Getenv("LOCKPASS_LOG_FILE"); val != "" {
		c.Log.File = expandHome(val)
		c.sources["log.file"] = "environment"
	}
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.FormatVersion != 0 && c.FormatVersion != 1 {
		return fmt.Errorf("invalid format_version %d: must be 0 or 1", c.FormatVersion)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

// FilePath returns the path the config was loaded from
func (c *Config) FilePath() string {
	return c.filePath
}

// Source returns which layer set a configuration attribute
func (c *Config) Source(name string) string {
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Attribute is one setting with its effective value and where it came from
type Attribute struct {
	Name   string
	Value  string
	Source string
}

// Attributes lists every setting in a stable order
func (c *Config) Attributes() []Attribute {
	values := map[string]string{
		"vault_dir":      c.VaultDir,
		"registry_path":  c.RegistryPath,
		"format_version": strconv.Itoa(c.FormatVersion),
		"keyring":        strconv.FormatBool(c.Keyring),
		"log.level":      c.Log.Level,
		"log.file":       c.Log.File,
	}
	attrs := make([]Attribute, 0, len(values))
	for _, name := range attributeNames() {
		attrs = append(attrs, Attribute{Name: name, Value: values[name], Source: c.Source(name)})
	}
	return attrs
}

// SetFlag records a value coming from a command-line flag
func (c *Config) SetFlag(name string) {
	if c.sources == nil {
		c.sources = make(map[string]string)
	}
	c.sources[name] = "flag"
}

// Save writes the config to path as YAML
func Save(c *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
