package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/internal/config"
	"github.com/javanstorm/substance/internal/entity"
	"github.com/javanstorm/substance/internal/fsutil"
	"github.com/javanstorm/substance/internal/logging"
	"github.com/javanstorm/substance/pkg/hypervisor"
	"github.com/javanstorm/substance/pkg/result"
	"github.com/javanstorm/substance/pkg/shell"
)

// Core owns the engines collection and the substance.yml document.
type Core struct {
	paths   *config.Paths
	engines *entity.Collection
	doc     *config.Document
	runner  shell.Runner
	log     zerolog.Logger

	mu      sync.Mutex
	drivers map[string]hypervisor.Driver
}

// NewCore creates a Core over paths. Driver commands go through runner.
func NewCore(paths *config.Paths, runner shell.Runner, log zerolog.Logger) *Core {
	return &Core{
		paths:   paths,
		engines: entity.NewCollection(Kind, paths.BaseDir, paths.EnginesDir, log),
		doc:     config.NewDocument(paths.DocumentFile),
		runner:  runner,
		log:     log,
		drivers: map[string]hypervisor.Driver{},
	}
}

// Paths returns the layout the core operates on.
func (c *Core) Paths() *config.Paths { return c.paths }

// AssertPaths creates the base and engines directories.
func (c *Core) AssertPaths() result.Result[result.Unit] {
	return c.engines.AssertPaths()
}

// Engines lists the engines sorted by name.
func (c *Core) Engines() result.Result[[]*Engine] {
	return result.Map(c.engines.List(), func(list []entity.Entity) []*Engine {
		out := make([]*Engine, 0, len(list))
		for _, e := range list {
			out = append(out, newEngine(e))
		}
		return out
	})
}

// GetEngine returns the engine named name.
func (c *Core) GetEngine(name string) result.Result[*Engine] {
	return result.Map(c.engines.Get(name), newEngine)
}

// CreateEngine creates the engine directory, writes engine.yml and generates
// the engine's key pair. cfg and profile may be nil. If the files cannot be
// written the directory is removed again.
func (c *Core) CreateEngine(name string, cfg *Config, profile *Profile) result.Result[*Engine] {
	merged := mergeConfig(cfg, profile)
	if !c.ValidDriver(merged.Driver) {
		return result.Fail[*Engine](&entity.InvalidOptionError{
			Option: "driver",
			Value:  merged.Driver,
			Reason: "supported drivers: " + strings.Join(hypervisor.SupportedDrivers(), ", "),
		})
	}
	if err := merged.Validate(); err != nil {
		return result.Fail[*Engine](&entity.InvalidOptionError{Option: "engine config", Value: name, Reason: err.Error()})
	}

	created := result.Map(c.engines.Create(name), newEngine)
	return result.Bind(created, func(e *Engine) result.Result[*Engine] {
		if err := writeEngineFiles(e, merged); err != nil {
			if rmErr := fsutil.RemoveDirectory(e.Path); rmErr != nil {
				c.log.Warn().Err(rmErr).Str("engine", name).Msg("failed to remove partially created engine")
			}
			return result.Fail[*Engine](&entity.FileSystemError{Op: "generate config in", Path: e.Path, Err: err})
		}
		return result.Ok(e)
	})
}

// RemoveEngine deletes the engine directory. The VM itself is left alone.
func (c *Core) RemoveEngine(name string) result.Result[result.Unit] {
	return c.engines.Delete(name)
}

// ValidDriver reports whether driver names a supported hypervisor driver.
func (c *Core) ValidDriver(driver string) bool {
	return hypervisor.ValidDriver(driver)
}

// Config returns the substance.yml document, generating it if absent.
func (c *Core) Config() result.Result[map[string]any] {
	return documentResult(c, c.doc.Values)
}

// ConfigKey returns the value stored under key, or nil.
func (c *Core) ConfigKey(key string) result.Result[any] {
	return documentResult(c, func() (any, error) {
		v, _, err := c.doc.Get(key)
		return v, err
	})
}

// SetConfigKey sets key in memory. Call SaveConfig to persist.
func (c *Core) SetConfigKey(key string, value any) result.Result[result.Unit] {
	return documentResult(c, func() (result.Unit, error) {
		return result.Done, c.doc.Set(key, value)
	})
}

// SaveConfig writes substance.yml.
func (c *Core) SaveConfig() result.Result[result.Unit] {
	return documentResult(c, func() (result.Unit, error) {
		return result.Done, c.doc.Save()
	})
}

func documentResult[T any](c *Core, f func() (T, error)) result.Result[T] {
	return result.Catch(result.Attempt(f), func(err error) result.Result[T] {
		return result.Fail[T](&entity.FileSystemError{Op: "access", Path: c.doc.Path(), Err: err})
	})
}

// Driver returns the shared driver instance for name, so the version check
// runs once per driver per process.
func (c *Core) Driver(name string) (hypervisor.Driver, error) {
	key := strings.ToLower(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.drivers[key]; ok {
		return d, nil
	}
	d, err := hypervisor.NewDriver(name, c.runner, logging.Component(c.log, "driver"))
	if err != nil {
		return nil, err
	}
	c.drivers[key] = d
	return d, nil
}

// Status is an engine's machine state together with its run history.
type Status struct {
	Engine *Engine
	Config *Config
	State  hypervisor.MachineState
	Run    *RunState
}

// Start boots the engine's machine and records the boot.
func (c *Core) Start(ctx context.Context, name string) result.Result[result.Unit] {
	return withDriver(c, name, func(e *Engine, d hypervisor.Driver) result.Result[result.Unit] {
		started := result.Then(hypervisor.StartMachine(ctx, d, e.MachineName()), result.Defer(d.AssertVersion, ctx))
		return result.Bind(started, func(version string) result.Result[result.Unit] {
			c.log.Info().Str("engine", name).Str("version", version).Msg("started")
			return result.Exec(func() error { return e.State().RecordBoot(version) })
		})
	})
}

// Stop shuts the engine's machine down, or powers it off when force is set.
func (c *Core) Stop(ctx context.Context, name string, force bool) result.Result[result.Unit] {
	return withDriver(c, name, func(e *Engine, d hypervisor.Driver) result.Result[result.Unit] {
		stopped := hypervisor.StopMachine(ctx, d, e.MachineName(), force)
		return result.Then(stopped, func() result.Result[result.Unit] {
			c.log.Info().Str("engine", name).Bool("force", force).Msg("stopped")
			return result.Exec(func() error { return e.State().RecordShutdown(!force) })
		})
	})
}

// Status reports the engine's machine state and stores it as the latest
// observation.
func (c *Core) Status(ctx context.Context, name string) result.Result[Status] {
	return withDriver(c, name, func(e *Engine, d hypervisor.Driver) result.Result[Status] {
		return result.Bind(hypervisor.GetMachineState(ctx, d, e.MachineName()), func(state hypervisor.MachineState) result.Result[Status] {
			if err := e.State().RecordObserved(state); err != nil {
				c.log.Warn().Err(err).Str("engine", name).Msg("failed to record machine state")
			}
			run, err := e.State().Load()
			if err != nil {
				return result.Fail[Status](err)
			}
			cfg, _ := e.Config()
			return result.Ok(Status{Engine: e, Config: cfg, State: state, Run: run})
		})
	})
}

func withDriver[T any](c *Core, name string, f func(*Engine, hypervisor.Driver) result.Result[T]) result.Result[T] {
	return result.Bind(c.GetEngine(name), func(e *Engine) result.Result[T] {
		cfg, err := e.Config()
		if err != nil {
			return result.Fail[T](fmt.Errorf("engine %q: %w", name, err))
		}
		d, err := c.Driver(cfg.Driver)
		if err != nil {
			return result.Fail[T](err)
		}
		return f(e, d)
	})
}
