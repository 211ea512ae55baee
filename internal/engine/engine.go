// Package engine manages engines: directory-backed virtual machine
// definitions driven through a hypervisor driver.
package engine

import (
	"path/filepath"

	"github.com/javanstorm/substance/internal/entity"
)

// Kind is the entity kind name for engines.
const Kind = "engine"

// Engine is a handle to one engine directory.
type Engine struct {
	entity.Entity

	ConfigFile string
	KeysDir    string
	StateFile  string
}

func newEngine(e entity.Entity) *Engine {
	return &Engine{
		Entity:     e,
		ConfigFile: filepath.Join(e.Path, "engine.yml"),
		KeysDir:    filepath.Join(e.Path, "keys"),
		StateFile:  filepath.Join(e.Path, "state.json"),
	}
}

// MachineName is the name the engine's VM is registered under.
func (e *Engine) MachineName() string {
	return "substance-" + e.Name
}

// Config reads the engine's engine.yml.
func (e *Engine) Config() (*Config, error) {
	return LoadConfig(e.ConfigFile)
}

// Keys returns the engine's SSH key manager.
func (e *Engine) Keys() *KeyManager {
	return NewKeyManager(e.KeysDir, "substance@"+e.Name)
}

// State returns the engine's run-state file.
func (e *Engine) State() *StateFile {
	return NewStateFile(e.Path)
}

// writeEngineFiles populates a freshly created engine directory.
var writeEngineFiles = (*Engine).generateConfig

// generateConfig writes engine.yml and the key pair for a new engine.
func (e *Engine) generateConfig(c *Config) error {
	if err := SaveConfig(e.ConfigFile, c); err != nil {
		return err
	}
	return e.Keys().EnsureKeyPair()
}

// mergeConfig fills zero fields of cfg from the defaults; profile, when
// given, wins over cfg.Profile.
func mergeConfig(cfg *Config, profile *Profile) *Config {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.ID != "" {
			c.ID = cfg.ID
		}
		if cfg.Driver != "" {
			c.Driver = cfg.Driver
		}
		if !cfg.CreatedAt.IsZero() {
			c.CreatedAt = cfg.CreatedAt
		}
		if cfg.Profile != (Profile{}) {
			c.Profile = cfg.Profile
		}
	}
	if profile != nil {
		c.Profile = *profile
	}
	return c
}
