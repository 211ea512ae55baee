// Package entity manages directory-backed entities: one subdirectory per
// entity name under a collection directory. The directory is the source of
// truth; nothing is cached in memory.
package entity

import (
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/internal/fsutil"
	"github.com/javanstorm/substance/pkg/result"
)

// Entity is a handle to one entity directory. Building one reads nothing.
type Entity struct {
	Kind string
	Name string
	Path string
}

// Collection is the set of entities of one kind stored under dir.
type Collection struct {
	kind     string
	basePath string
	dir      string
	log      zerolog.Logger
}

// NewCollection returns the collection of kind entities stored in dir, which
// lives below basePath.
func NewCollection(kind, basePath, dir string, log zerolog.Logger) *Collection {
	return &Collection{kind: kind, basePath: basePath, dir: dir, log: log}
}

// Kind returns the entity kind name.
func (c *Collection) Kind() string { return c.kind }

// Dir returns the collection directory.
func (c *Collection) Dir() string { return c.dir }

// Path returns the directory an entity named name would occupy.
func (c *Collection) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// AssertPaths creates the base and collection directories, stopping at the
// first failure.
func (c *Collection) AssertPaths() result.Result[result.Unit] {
	made := result.MapM([]string{c.basePath, c.dir}, func(p string) result.Result[result.Unit] {
		return fsStep("create directory", p, fsutil.MakeDirectory)
	})
	return result.Map(made, func([]result.Unit) result.Unit { return result.Done })
}

// List returns the entities in the collection, sorted by name.
func (c *Collection) List() result.Result[[]Entity] {
	return result.Then(c.AssertPaths(), func() result.Result[[]Entity] {
		names, err := fsutil.SubDirectories(c.dir)
		if err != nil {
			return result.Fail[[]Entity](&FileSystemError{Op: "list", Path: c.dir, Err: err})
		}
		sort.Strings(names)
		entities := make([]Entity, 0, len(names))
		for _, name := range names {
			entities = append(entities, c.entity(name))
		}
		return result.Ok(entities)
	})
}

// Exists reports whether an entity directory named name exists.
func (c *Collection) Exists(name string) result.Result[bool] {
	if err := ValidateName(name); err != nil {
		return result.Fail[bool](err)
	}
	ok, err := fsutil.IsDir(c.Path(name))
	if err != nil {
		return result.Fail[bool](&FileSystemError{Op: "stat", Path: c.Path(name), Err: err})
	}
	return result.Ok(ok)
}

// Get returns the entity named name, failing with NotFoundError when its
// directory is missing.
func (c *Collection) Get(name string) result.Result[Entity] {
	return result.Bind(c.Exists(name), func(ok bool) result.Result[Entity] {
		if !ok {
			return result.Fail[Entity](&NotFoundError{Kind: c.kind, Name: name})
		}
		return result.Ok(c.entity(name))
	})
}

// Create makes the directory for a new entity, failing with ExistsError when
// it is already there.
func (c *Collection) Create(name string) result.Result[Entity] {
	exists := result.Then(c.AssertPaths(), result.Defer(c.Exists, name))
	return result.Bind(exists, func(ok bool) result.Result[Entity] {
		if ok {
			return result.Fail[Entity](&ExistsError{Kind: c.kind, Name: name})
		}
		made := fsStep("create directory", c.Path(name), fsutil.MakeDirectory)
		return result.Map(made, func(result.Unit) Entity {
			c.log.Info().Str(c.kind, name).Msg("created")
			return c.entity(name)
		})
	})
}

// Delete removes the entity directory and everything in it.
func (c *Collection) Delete(name string) result.Result[result.Unit] {
	return result.Bind(c.Get(name), func(e Entity) result.Result[result.Unit] {
		removed := fsStep("remove directory", e.Path, fsutil.RemoveDirectory)
		if removed.IsOk() {
			c.log.Info().Str(c.kind, name).Msg("deleted")
		}
		return removed
	})
}

func (c *Collection) entity(name string) Entity {
	return Entity{Kind: c.kind, Name: name, Path: c.Path(name)}
}

func fsStep(op, path string, f func(string) error) result.Result[result.Unit] {
	return result.Exec(func() error {
		if err := f(path); err != nil {
			return &FileSystemError{Op: op, Path: path, Err: err}
		}
		return nil
	})
}
