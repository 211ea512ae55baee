package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/javanstorm/substance/pkg/hypervisor"
)

// Settings holds the process-wide substance settings.
type Settings struct {
	// BasePath is the root directory for engines and environments.
	BasePath string `mapstructure:"base_path" validate:"required"`

	// LogLevel is the zerolog level name.
	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	// LogFormat selects console or json log output.
	LogFormat string `mapstructure:"log_format" validate:"oneof=console json"`

	// Driver names the hypervisor driver used for new engines.
	Driver string `mapstructure:"driver" validate:"driver"`

	// AssumeYes answers yes to every confirmation prompt.
	AssumeYes bool `mapstructure:"assume_yes"`

	// File is the settings file that was read, if any.
	File string `mapstructure:"-"`
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() *Settings {
	base, err := DefaultBaseDir()
	if err != nil {
		// Fallback if we can't determine home directory
		base = "/tmp/substance"
	}
	return &Settings{
		BasePath:  base,
		LogLevel:  "info",
		LogFormat: "console",
		Driver:    hypervisor.DriverVirtualBox,
		AssumeYes: false,
	}
}

// LoadOptions are the command-line overrides applied on top of file and
// environment settings.
type LoadOptions struct {
	// BasePath overrides base_path when set.
	BasePath string

	// ConfigFile names an explicit settings file. When empty, config.yaml is
	// looked up in the base directory.
	ConfigFile string
}

// Load reads settings from file, environment, and defaults. Precedence, from
// highest: LoadOptions, SUBSTANCE_* environment variables, the settings file,
// defaults.
func Load(opts LoadOptions) (*Settings, error) {
	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("base_path", defaults.BasePath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("driver", defaults.Driver)
	v.SetDefault("assume_yes", defaults.AssumeYes)

	// Environment variable support: SUBSTANCE_BASE_PATH, SUBSTANCE_DRIVER, etc.
	v.SetEnvPrefix("SUBSTANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	base := opts.BasePath
	if base == "" {
		base = v.GetString("base_path")
	}
	paths, err := NewPaths(base)
	if err != nil {
		return nil, fmt.Errorf("failed to determine paths: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(paths.BaseDir)
	}

	// Settings file is optional unless named explicitly
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if opts.BasePath != "" {
		s.BasePath = paths.BaseDir
	}
	if s.BasePath, err = ExpandPath(s.BasePath); err != nil {
		return nil, fmt.Errorf("failed to determine paths: %w", err)
	}
	s.LogLevel = strings.ToLower(s.LogLevel)
	s.LogFormat = strings.ToLower(s.LogFormat)
	s.File = v.ConfigFileUsed()

	return s, nil
}

// Paths returns the on-disk layout for these settings.
func (s *Settings) Paths() (*Paths, error) {
	return NewPaths(s.BasePath)
}
