// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AppName is used for XDG directory names.
const AppName = "bananabox"

// Config represents the application configuration.
type Config struct {
	Library   LibraryConfig   `yaml:"library"`
	Player    PlayerConfig    `yaml:"player"`
	Playlists PlaylistsConfig `yaml:"playlists"`
}

// LibraryConfig represents the music library configuration.
type LibraryConfig struct {
	Paths []string `yaml:"paths" validate:"required,min=1,dive,required"`
}

// PlayerConfig represents the external player configuration.
type PlayerConfig struct {
	Backend  string         `yaml:"backend" default:"mpg123" validate:"oneof=mpg123 mpv ffplay command"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// PlaylistsConfig represents saved playlist configuration.
type PlaylistsConfig struct {
	Dir      string `yaml:"dir"`
	AutoSave *bool  `yaml:"autosave" default:"true"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultPlaylistsDir returns the default directory for saved playlists.
func DefaultPlaylistsDir() string {
	return filepath.Join(xdg.DataHome, AppName, "playlists")
}

// Exists reports whether a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// New builds a configuration for the given library paths with defaults applied.
func New(paths []string) (*Config, error) {
	cfg := &Config{
		Library: LibraryConfig{Paths: cleanPaths(paths)},
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) finalize() error {
	// Set defaults using creasty/defaults
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	for i, p := range c.Library.Paths {
		c.Library.Paths[i] = expandPath(p)
	}
	if c.Playlists.Dir == "" {
		c.Playlists.Dir = DefaultPlaylistsDir()
	}
	c.Playlists.Dir = expandPath(c.Playlists.Dir)

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BANANABOX_LIBRARY_PATHS"); v != "" {
		c.Library.Paths = cleanPaths(strings.Split(v, ","))
	}
	if v := os.Getenv("BANANABOX_PLAYER_BACKEND"); v != "" {
		c.Player.Backend = v
	}
	if v := os.Getenv("BANANABOX_PLAYLISTS_DIR"); v != "" {
		c.Playlists.Dir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// AutoSaveEnabled reports whether playlists are saved on exit.
func (c *Config) AutoSaveEnabled() bool {
	return c.Playlists.AutoSave == nil || *c.Playlists.AutoSave
}

// ParsePaths splits a comma-separated list of library paths.
func ParsePaths(input string) []string {
	return cleanPaths(strings.Split(input, ","))
}

func cleanPaths(paths []string) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
