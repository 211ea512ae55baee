package hypervisor

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/javanstorm/substance/pkg/result"
	"github.com/javanstorm/substance/pkg/shell"
)

// MachineState is the VMState reported by `showvminfo --machinereadable`.
type MachineState string

const (
	StateInexistent MachineState = "inexistent"
	StateRunning    MachineState = "running"
	StatePoweroff   MachineState = "poweroff"
	StateSaved      MachineState = "saved"
	StatePaused     MachineState = "paused"
	StateAborted    MachineState = "aborted"
	StateUnknown    MachineState = "unknown"
)

// Running reports whether the machine is executing.
func (s MachineState) Running() bool { return s == StateRunning }

// Machine is a VM registered with the tool.
type Machine struct {
	Name string
	UUID string
}

var machineLine = regexp.MustCompile(`^"(.*)" \{([0-9a-fA-F-]+)\}$`)

// ListMachines returns the VMs registered with the tool.
func ListMachines(ctx context.Context, d Driver) result.Result[[]Machine] {
	return result.Map(d.Invoke(ctx, "list", "vms"), parseMachines)
}

func parseMachines(out string) []Machine {
	var machines []Machine
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := machineLine.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil {
			continue
		}
		machines = append(machines, Machine{Name: m[1], UUID: m[2]})
	}
	return machines
}

// GetMachineState returns the state of the VM identified by name or UUID. A
// VM the tool does not know reports StateInexistent rather than failing.
func GetMachineState(ctx context.Context, d Driver, id string) result.Result[MachineState] {
	state := result.Map(d.Invoke(ctx, "showvminfo", shell.Quote(id)+" --machinereadable"), parseMachineState)
	return state.Catch(func(err error) result.Result[MachineState] {
		if HasCode(err, CodeObjectNotFound) {
			return result.Ok(StateInexistent)
		}
		return result.Fail[MachineState](err)
	})
}

func parseMachineState(out string) MachineState {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if v, ok := strings.CutPrefix(line, "VMState="); ok {
			return MachineState(strings.Trim(v, `"`))
		}
	}
	return StateUnknown
}

// StartMachine boots the VM without a GUI window.
func StartMachine(ctx context.Context, d Driver, id string) result.Result[result.Unit] {
	return discard(d.Invoke(ctx, "startvm", shell.Quote(id)+" --type headless"))
}

// StopMachine asks the guest to shut down, or powers it off when force is set.
func StopMachine(ctx context.Context, d Driver, id string, force bool) result.Result[result.Unit] {
	action := "acpipowerbutton"
	if force {
		action = "poweroff"
	}
	return discard(d.Invoke(ctx, "controlvm", shell.Quote(id)+" "+action))
}

func discard(r result.Result[string]) result.Result[result.Unit] {
	return result.Map(r, func(string) result.Unit { return result.Done })
}
