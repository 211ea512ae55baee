// Package testutil provides common test helpers for substance tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/javanstorm/substance/pkg/result"
	"github.com/javanstorm/substance/pkg/shell"
)

// Response is a canned process outcome for FakeRunner.
type Response struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	NotStarted bool
}

type rule struct {
	match string
	resp  Response
}

// FakeRunner is a shell.Runner that answers from canned responses and records
// every command line it receives. Rules are matched by substring in the order
// they were added; unmatched commands fail as if the binary were missing.
type FakeRunner struct {
	mu    sync.Mutex
	rules []rule
	calls []string
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On registers resp for command lines containing match.
func (f *FakeRunner) On(match string, resp Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{match: match, resp: resp})
	return f
}

// Run implements shell.Runner.
func (f *FakeRunner) Run(_ context.Context, line string) result.Result[shell.Outcome] {
	f.mu.Lock()
	f.calls = append(f.calls, line)
	resp := Response{Stderr: "sh: command not found\n", ExitCode: 127}
	for _, r := range f.rules {
		if strings.Contains(line, r.match) {
			resp = r.resp
			break
		}
	}
	f.mu.Unlock()

	if resp.NotStarted {
		return result.Fail[shell.Outcome](&shell.CommandError{
			Command:    line,
			ExitCode:   shell.ExitNotStarted,
			NotStarted: true,
			Err:        shell.ErrCommandNotFound,
		})
	}
	if resp.ExitCode != 0 {
		return result.Fail[shell.Outcome](&shell.CommandError{
			Command:  line,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
			ExitCode: resp.ExitCode,
		})
	}
	return result.Ok(shell.Outcome{Stdout: resp.Stdout, Stderr: resp.Stderr})
}

// Calls returns the recorded command lines.
func (f *FakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how many recorded command lines contain match.
func (f *FakeRunner) Count(match string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.Contains(c, match) {
			n++
		}
	}
	return n
}

// VirtualBoxRunner returns a FakeRunner that reports version as installed.
func VirtualBoxRunner(version string) *FakeRunner {
	return NewFakeRunner().On("--version", Response{Stdout: version + "\n"})
}

var _ shell.Runner = (*FakeRunner)(nil)

// BaseDir returns a fresh substance base directory under t.TempDir(). The
// directory itself is not created.
func BaseDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "substance")
}

// MakeDirs creates each path relative to root.
func MakeDirs(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Join(root, p), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", p, err)
		}
	}
}
