package hypervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/pkg/result"
	"github.com/javanstorm/substance/pkg/shell"
)

// VirtualBox implements Driver on top of VBoxManage.
//
// The version precondition is checked on the first Invoke and cached in the
// value; construct one VirtualBox per process and share it. The cache lock is
// held across the check, so concurrent first calls query the tool once.
type VirtualBox struct {
	runner     shell.Runner
	executable string
	minimum    Version
	log        zerolog.Logger

	mu      sync.Mutex
	checked string
}

// Option configures a VirtualBox driver.
type Option func(*VirtualBox)

// WithExecutable overrides the VBoxManage executable name or path.
func WithExecutable(path string) Option {
	return func(v *VirtualBox) { v.executable = path }
}

// WithMinimum overrides the minimum accepted version.
func WithMinimum(min Version) Option {
	return func(v *VirtualBox) { v.minimum = min }
}

// WithLogger sets the driver logger.
func WithLogger(log zerolog.Logger) Option {
	return func(v *VirtualBox) { v.log = log }
}

// NewVirtualBox creates a VirtualBox driver that runs commands through runner.
func NewVirtualBox(runner shell.Runner, opts ...Option) *VirtualBox {
	v := &VirtualBox{
		runner:     runner,
		executable: executableName("VBoxManage"),
		minimum:    MinimumVersion,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VirtualBox) Info() Info {
	return Info{Name: DriverVirtualBox, Executable: v.executable, Minimum: v.minimum}
}

// Invoke runs `VBoxManage <subcommand> <params>` once the version
// precondition holds.
func (v *VirtualBox) Invoke(ctx context.Context, subcommand, params string) result.Result[string] {
	return result.Then(v.AssertVersion(ctx), result.Defer2(v.exec, ctx, v.commandLine(subcommand, params)))
}

// AssertVersion returns the cached version or reads and checks it.
func (v *VirtualBox) AssertVersion(ctx context.Context) result.Result[string] {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.checked != "" {
		return result.Ok(v.checked)
	}

	r := result.Bind(v.ReadVersion(ctx), v.checkVersion)
	if r.IsOk() {
		v.checked = r.Value()
		v.log.Debug().Str("version", v.checked).Msg("virtualbox version accepted")
	}
	return r
}

// ReadVersion queries the installed version directly, bypassing the
// precondition.
func (v *VirtualBox) ReadVersion(ctx context.Context) result.Result[string] {
	return result.Bind(v.exec(ctx, v.commandLine("--version", "")), ParseVersion)
}

func (v *VirtualBox) checkVersion(version string) result.Result[string] {
	r := CheckVersion(version, v.minimum)
	if r.IsFail() && OrdersAtLeast(version, v.minimum) {
		v.log.Warn().
			Str("version", version).
			Str("minimum", v.minimum.String()).
			Msg("version rejected by per-component check although it sorts above the minimum")
	}
	return r
}

func (v *VirtualBox) commandLine(subcommand, params string) string {
	parts := []string{shell.Quote(v.executable), subcommand}
	if params = strings.TrimSpace(params); params != "" {
		parts = append(parts, params)
	}
	return strings.Join(parts, " ")
}

func (v *VirtualBox) exec(ctx context.Context, line string) result.Result[string] {
	v.log.Debug().Str("cmd", line).Msg("invoke")
	out := result.Map(v.runner.Run(ctx, line), func(o shell.Outcome) string { return o.Stdout })
	return result.Catch(out, v.classify)
}

// classify converts a shell failure into a ToolError.
func (v *VirtualBox) classify(err error) result.Result[string] {
	var cmdErr *shell.CommandError
	if !errors.As(err, &cmdErr) {
		return result.Fail[string](err)
	}
	if !cmdErr.Started() {
		return result.Fail[string](&ToolError{
			Message: fmt.Sprintf("%s could not be executed; is VirtualBox installed?", v.executable),
			Err:     cmdErr,
		})
	}
	return result.Fail[string](&ToolError{
		Message: cmdErr.Stderr,
		Code:    ExtractCode(cmdErr.Stderr),
		Err:     cmdErr,
	})
}

var _ Driver = (*VirtualBox)(nil)
