// Package hypervisor drives the external virtual-machine manager.
//
// A Driver validates the installed tool version once per driver value, runs
// subcommands through a shell.Runner, and translates the tool's stderr into
// coded ToolErrors. Every operation returns a result.Result so callers can
// chain steps and let the first failure short-circuit.
package hypervisor

import (
	"context"

	"github.com/javanstorm/substance/pkg/result"
)

// Driver is the interface implemented by VM-manager adapters.
type Driver interface {
	// Info describes the driver and the tool it wraps.
	Info() Info

	// AssertVersion checks the installed tool version against the minimum.
	// The first successful check is cached for the lifetime of the driver.
	AssertVersion(ctx context.Context) result.Result[string]

	// Invoke runs a subcommand with a flat parameter string after the version
	// precondition holds, returning the raw stdout.
	Invoke(ctx context.Context, subcommand, params string) result.Result[string]
}

// Info contains driver metadata.
type Info struct {
	Name       string  // "virtualbox"
	Executable string  // "VBoxManage"
	Minimum    Version // minimum supported tool version
}
