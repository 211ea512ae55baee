package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/javanstorm/substance/internal/fsutil"
	"github.com/javanstorm/substance/pkg/hypervisor"
)

// Profile sizes the engine's virtual machine.
type Profile struct {
	Name   string `yaml:"name" validate:"required"`
	CPUs   int    `yaml:"cpus" validate:"min=1"`
	Memory int    `yaml:"memory" validate:"min=128"` // MB
}

// DefaultProfile is used when CreateEngine gets no profile.
func DefaultProfile() Profile {
	return Profile{Name: "default", CPUs: 2, Memory: 1024}
}

// Config is the engine.yml document.
type Config struct {
	ID        string    `yaml:"id" validate:"required,uuid"`
	Driver    string    `yaml:"driver" validate:"required,driver"`
	Profile   Profile   `yaml:"profile"`
	CreatedAt time.Time `yaml:"created_at"`
}

// DefaultConfig returns a fresh config with a new id.
func DefaultConfig() *Config {
	return &Config{
		ID:        uuid.NewString(),
		Driver:    hypervisor.DriverVirtualBox,
		Profile:   DefaultProfile(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("driver", func(fl validator.FieldLevel) bool {
		return hypervisor.ValidDriver(fl.Field().String())
	})
	return v
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}

// LoadConfig reads and validates an engine.yml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse engine config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConfig validates c and writes it to path.
func SaveConfig(path string, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal engine config: %w", err)
	}
	return fsutil.AtomicWrite(path, data, 0644)
}
