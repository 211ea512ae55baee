// Package subenv manages environments: named project directories of which
// at most one is current.
package subenv

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/internal/config"
	"github.com/javanstorm/substance/internal/entity"
	"github.com/javanstorm/substance/internal/fsutil"
	"github.com/javanstorm/substance/pkg/result"
)

// Kind is the entity kind name for environments.
const Kind = "environment"

// Environment is one environment directory. Current is computed when the
// environment is listed.
type Environment struct {
	entity.Entity
	Current bool
}

// API manages the environments under one base directory.
type API struct {
	paths     *config.Paths
	envs      *entity.Collection
	log       zerolog.Logger
	assumeYes bool
}

// New returns an API over paths.
func New(paths *config.Paths, log zerolog.Logger) *API {
	return &API{
		paths: paths,
		envs:  entity.NewCollection(Kind, paths.BaseDir, paths.EnvsDir, log),
		log:   log,
	}
}

// SetAssumeYes makes destructive operations skip confirmation.
func (a *API) SetAssumeYes(b bool) { a.assumeYes = b }

// AssumeYes reports whether confirmations are skipped.
func (a *API) AssumeYes() bool { return a.assumeYes }

// Initialize prepares the base and envs directories.
func (a *API) Initialize() result.Result[result.Unit] {
	return a.AssertPaths()
}

// AssertPaths creates the base and envs directories.
func (a *API) AssertPaths() result.Result[result.Unit] {
	return a.envs.AssertPaths()
}

// Create makes a new, empty environment.
func (a *API) Create(name string) result.Result[Environment] {
	return result.Map(a.envs.Create(name), a.wrap)
}

// CreateFrom makes a new environment seeded with a copy of the template
// directory. If the copy fails the new environment is removed again.
func (a *API) CreateFrom(name, template string) result.Result[Environment] {
	ok, err := fsutil.IsDir(template)
	if err != nil || !ok {
		return result.Fail[Environment](&entity.InvalidOptionError{
			Option: "template",
			Value:  template,
			Reason: "must be an existing directory",
		})
	}

	return result.Bind(a.envs.Create(name), func(e entity.Entity) result.Result[Environment] {
		a.log.Info().Str("environment", name).Str("template", template).Msg("seeding environment")
		if err := fsutil.CopyTree(template, e.Path); err != nil {
			if rmErr := fsutil.RemoveDirectory(e.Path); rmErr != nil {
				a.log.Warn().Err(rmErr).Str("environment", name).Msg("failed to remove partially seeded environment")
			}
			return result.Fail[Environment](&entity.FileSystemError{Op: "seed", Path: e.Path, Err: err})
		}
		return result.Ok(a.wrap(e))
	})
}

// Exists reports whether the environment directory exists.
func (a *API) Exists(name string) result.Result[bool] {
	return a.envs.Exists(name)
}

// Get returns the environment named name.
func (a *API) Get(name string) result.Result[Environment] {
	return result.Map(a.envs.Get(name), a.wrap)
}

// Delete removes the environment directory. Deleting the current environment
// leaves a dangling pointer, which Current reports as no environment.
func (a *API) Delete(name string) result.Result[result.Unit] {
	return a.envs.Delete(name)
}

// Use makes name the current environment by atomically replacing the
// current pointer.
func (a *API) Use(name string) result.Result[Environment] {
	return result.Bind(a.envs.Get(name), func(e entity.Entity) result.Result[Environment] {
		err := fsutil.ReplacePointer(e.Path, a.paths.CurrentLink)
		if err != nil {
			return result.Fail[Environment](&entity.FileSystemError{Op: "select", Path: a.paths.CurrentLink, Err: err})
		}
		a.log.Info().Str("environment", name).Msg("current substance environment changed")
		return result.Ok(Environment{Entity: e, Current: true})
	})
}

// Current returns the current environment. Any failure to resolve the
// pointer reports no current environment.
func (a *API) Current() (Environment, bool) {
	target, err := fsutil.ResolvePointer(a.paths.CurrentLink)
	if err != nil {
		a.log.Debug().Err(err).Msg("no current environment")
		return Environment{}, false
	}
	name := filepath.Base(target)
	if filepath.Clean(filepath.Dir(target)) != filepath.Clean(a.paths.EnvsDir) {
		a.log.Debug().Str("target", target).Msg("current pointer is outside the envs directory")
		return Environment{}, false
	}
	e, err := a.envs.Get(name).Unwrap()
	if err != nil {
		return Environment{}, false
	}
	return Environment{Entity: e, Current: true}, true
}

// List returns every environment sorted by name, marking the current one.
func (a *API) List() result.Result[[]Environment] {
	current, hasCurrent := a.Current()
	return result.Map(a.envs.List(), func(list []entity.Entity) []Environment {
		out := make([]Environment, 0, len(list))
		for _, e := range list {
			out = append(out, Environment{
				Entity:  e,
				Current: hasCurrent && e.Path == current.Path,
			})
		}
		return out
	})
}

func (a *API) wrap(e entity.Entity) Environment {
	env := Environment{Entity: e}
	if cur, ok := a.Current(); ok && cur.Path == e.Path {
		env.Current = true
	}
	return env
}
