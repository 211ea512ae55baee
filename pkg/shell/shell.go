// Package shell runs external commands and reports their outcome as a
// result.Result. A non-zero exit is always a failure at this layer; deciding
// whether a particular failure is acceptable belongs to the caller.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/pkg/result"
)

// ExitNotStarted is the exit code reported when a process could not be started.
// Started, not the exit code, tells a missing program from a killed one.
const ExitNotStarted = -1

// ErrCommandNotFound is wrapped by a CommandError when the shell could not
// find the program named on the command line.
var ErrCommandNotFound = errors.New("command not found")

// Outcome is the captured result of a finished process.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a command that could not start or exited non-zero.
type CommandError struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	// NotStarted is set when the program never ran.
	NotStarted bool
	// Err is the underlying start or wait error, if any.
	Err error
}

func (e *CommandError) Error() string {
	if e.NotStarted {
		return fmt.Sprintf("command %q could not be started: %v", e.Command, e.Err)
	}
	if e.ExitCode < 0 {
		return fmt.Sprintf("command %q was terminated: %v", e.Command, e.Err)
	}
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitCode, msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Started reports whether the process ran at all.
func (e *CommandError) Started() bool { return !e.NotStarted }

// Runner executes a command line.
type Runner interface {
	Run(ctx context.Context, commandLine string) result.Result[Outcome]
}

// Exec runs command lines through the platform shell and blocks until the
// process exits.
type Exec struct {
	Log zerolog.Logger
	// Dir is the working directory; empty means the current directory.
	Dir string
}

// NewExec returns an Exec runner that logs through log.
func NewExec(log zerolog.Logger) *Exec {
	return &Exec{Log: log}
}

// Run executes commandLine and captures stdout, stderr and the exit code.
func (r *Exec) Run(ctx context.Context, commandLine string) result.Result[Outcome] {
	if ctx == nil {
		ctx = context.Background()
	}

	name, args := shellCommand(commandLine)
	cmd := exec.CommandContext(ctx, name, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.Log.Debug().Str("cmd", commandLine).Err(err).Msg("command not started")
			return result.Fail[Outcome](&CommandError{Command: commandLine, ExitCode: ExitNotStarted, NotStarted: true, Err: err})
		}
		out.ExitCode = exitErr.ExitCode()
	}

	if out.ExitCode == notFoundStatus() {
		r.Log.Debug().Str("cmd", commandLine).Str("stderr", strings.TrimSpace(out.Stderr)).Msg("command not found")
		return result.Fail[Outcome](&CommandError{
			Command:    commandLine,
			Stderr:     out.Stderr,
			ExitCode:   ExitNotStarted,
			NotStarted: true,
			Err:        ErrCommandNotFound,
		})
	}

	r.Log.Debug().
		Str("cmd", commandLine).
		Int("exit", out.ExitCode).
		Dur("took", time.Since(start)).
		Msg("command finished")

	if out.ExitCode != 0 {
		return result.Fail[Outcome](&CommandError{
			Command:  commandLine,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			ExitCode: out.ExitCode,
			Err:      err,
		})
	}
	return result.Ok(out)
}

var defaultExec = &Exec{Log: zerolog.Nop()}

// RunCommand runs commandLine with a non-logging Exec runner.
func RunCommand(ctx context.Context, commandLine string) result.Result[Outcome] {
	return defaultExec.Run(ctx, commandLine)
}

func shellCommand(commandLine string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", commandLine}
	}
	return "/bin/sh", []string{"-c", commandLine}
}

// notFoundStatus is the status the platform shell exits with when the program
// it was asked to run does not exist.
func notFoundStatus() int {
	if runtime.GOOS == "windows" {
		return 9009
	}
	return 127
}

// Quote wraps s in single quotes for a POSIX shell when it contains anything
// other than safe characters.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=@%+,", r)
}
