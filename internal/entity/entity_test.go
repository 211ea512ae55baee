package entity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/internal/testutil"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	base := testutil.BaseDir(t)
	return NewCollection("engine", base, filepath.Join(base, "engines"), zerolog.Nop())
}

func TestAssertPathsCreatesDirectories(t *testing.T) {
	c := newTestCollection(t)
	if err := c.AssertPaths().Err(); err != nil {
		t.Fatalf("AssertPaths: %v", err)
	}
	if info, err := os.Stat(c.Dir()); err != nil || !info.IsDir() {
		t.Errorf("collection dir missing: %v", err)
	}
	// Idempotent
	if err := c.AssertPaths().Err(); err != nil {
		t.Errorf("second AssertPaths: %v", err)
	}
}

func TestAssertPathsStopsAtFirstFailure(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "base")
	if err := os.WriteFile(base, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}
	c := NewCollection("engine", base, filepath.Join(root, "engines"), zerolog.Nop())

	err := c.AssertPaths().Err()
	var fsErr *FileSystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("err = %v, want *FileSystemError", err)
	}
	if fsErr.Path != base {
		t.Errorf("failed path = %q, want base %q", fsErr.Path, base)
	}
	if !errors.Is(err, ErrFileSystem) {
		t.Error("errors.Is(ErrFileSystem) should match")
	}
	if _, err := os.Stat(filepath.Join(root, "engines")); !os.IsNotExist(err) {
		t.Error("collection dir must not be created after the base failed")
	}
}

func TestCreateTwiceFails(t *testing.T) {
	c := newTestCollection(t)
	if err := c.Create("x").Err(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	err := c.Create("x").Err()
	var exists *ExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("second Create err = %v, want *ExistsError", err)
	}
	if exists.Name != "x" || exists.Kind != "engine" {
		t.Errorf("ExistsError = %+v", exists)
	}
	if !errors.Is(err, ErrExists) {
		t.Error("errors.Is(ErrExists) should match")
	}
}

func TestDeleteThenGetFails(t *testing.T) {
	c := newTestCollection(t)
	if err := c.Create("x").Err(); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("x").Err(); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	err := c.Get("x").Err()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
	}
}

func TestNameReuseAfterDelete(t *testing.T) {
	c := newTestCollection(t)
	for i, step := range []func(string) error{
		func(n string) error { return c.Create(n).Err() },
		func(n string) error { return c.Delete(n).Err() },
		func(n string) error { return c.Create(n).Err() },
	} {
		if err := step("x"); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if ok := c.Exists("x").Value(); !ok {
		t.Error("x should exist after re-create")
	}
}

func TestDeleteRemovesTree(t *testing.T) {
	c := newTestCollection(t)
	e, err := c.Create("x").Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	testutil.MakeDirs(t, e.Path, "a/b")
	if err := os.WriteFile(filepath.Join(e.Path, "a", "b", "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Delete("x").Err(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(e.Path); !os.IsNotExist(err) {
		t.Error("entity directory should be gone")
	}
}

func TestDeleteMissing(t *testing.T) {
	c := newTestCollection(t)
	var nf *NotFoundError
	if err := c.Delete("ghost").Err(); !errors.As(err, &nf) {
		t.Errorf("err = %v, want *NotFoundError", err)
	}
}

func TestGetReturnsHandle(t *testing.T) {
	c := newTestCollection(t)
	if err := c.Create("x").Err(); err != nil {
		t.Fatal(err)
	}
	e, err := c.Get("x").Unwrap()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Name != "x" || e.Kind != "engine" || e.Path != filepath.Join(c.Dir(), "x") {
		t.Errorf("entity = %+v", e)
	}
}

func TestListSortedDirectoriesOnly(t *testing.T) {
	c := newTestCollection(t)
	for _, n := range []string{"charlie", "alpha", "bravo"} {
		if err := c.Create(n).Err(); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "stray.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	list, err := c.List().Unwrap()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "alpha,bravo,charlie" {
		t.Errorf("List = %v", names)
	}
}

func TestListEmpty(t *testing.T) {
	c := newTestCollection(t)
	list, err := c.List().Unwrap()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List = %v, want empty", list)
	}
}

func TestInvalidNames(t *testing.T) {
	c := newTestCollection(t)
	for _, name := range []string{"", "../escape", ".hidden", "a/b", "has space", strings.Repeat("a", 65)} {
		err := c.Create(name).Err()
		var inv *InvalidOptionError
		if !errors.As(err, &inv) {
			t.Errorf("Create(%q) err = %v, want *InvalidOptionError", name, err)
			continue
		}
		if !errors.Is(err, ErrInvalidOption) {
			t.Errorf("Create(%q) should match ErrInvalidOption", name)
		}
	}
	for _, name := range []string{"dev", "web-1", "a.b_c", "9lives", strings.Repeat("a", 64)} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v", name, err)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&NotFoundError{Kind: "engine", Name: "x"}, `engine "x" does not exist`},
		{&ExistsError{Kind: "environment", Name: "y"}, `environment "y" already exists`},
		{&FileSystemError{Op: "create directory", Path: "/p", Err: os.ErrPermission}, "failed to create directory /p: permission denied"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(&FileSystemError{Err: os.ErrPermission}, os.ErrPermission) {
		t.Error("FileSystemError should unwrap")
	}
}
