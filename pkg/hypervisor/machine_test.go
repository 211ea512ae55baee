package hypervisor

import (
	"context"
	"testing"

	"github.com/javanstorm/substance/internal/testutil"
)

func TestListMachines(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").On("list vms", testutil.Response{
		Stdout: "\"default\" {0f9b6a2e-1c1d-4d8e-9a5b-7a1a3c2d4e5f}\n" +
			"\"my vm\" {11111111-2222-3333-4444-555555555555}\n" +
			"garbage line\n",
	})
	machines, err := ListMachines(context.Background(), NewVirtualBox(runner)).Unwrap()
	if err != nil {
		t.Fatalf("ListMachines: %v", err)
	}
	if len(machines) != 2 {
		t.Fatalf("got %d machines, want 2", len(machines))
	}
	if machines[1].Name != "my vm" || machines[1].UUID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("machines[1] = %+v", machines[1])
	}
}

func TestGetMachineState(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").On("showvminfo default", testutil.Response{
		Stdout: "name=\"default\"\nVMState=\"poweroff\"\nVMStateChangeTime=\"2024-01-01T00:00:00\"\n",
	})
	state, err := GetMachineState(context.Background(), NewVirtualBox(runner), "default").Unwrap()
	if err != nil {
		t.Fatalf("GetMachineState: %v", err)
	}
	if state != StatePoweroff {
		t.Errorf("state = %q, want poweroff", state)
	}
	if state.Running() {
		t.Error("poweroff is not running")
	}
}

func TestGetMachineStateMissing(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").On("showvminfo", testutil.Response{
		Stderr:   "VBoxManage: error: Details: code VBOX_E_OBJECT_NOT_FOUND (0x80bb0001)\n",
		ExitCode: 1,
	})
	state, err := GetMachineState(context.Background(), NewVirtualBox(runner), "ghost").Unwrap()
	if err != nil {
		t.Fatalf("GetMachineState: %v", err)
	}
	if state != StateInexistent {
		t.Errorf("state = %q, want inexistent", state)
	}
}

func TestGetMachineStateOtherError(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").On("showvminfo", testutil.Response{
		Stderr:   "VBoxManage: error: Details: code E_ACCESSDENIED (0x80070005)\n",
		ExitCode: 1,
	})
	if err := GetMachineState(context.Background(), NewVirtualBox(runner), "x").Err(); !HasCode(err, "E_ACCESSDENIED") {
		t.Errorf("err = %v, want E_ACCESSDENIED", err)
	}
}

func TestStartStopMachine(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").
		On("startvm", testutil.Response{}).
		On("controlvm", testutil.Response{})
	vbox := NewVirtualBox(runner)
	ctx := context.Background()

	if err := StartMachine(ctx, vbox, "default").Err(); err != nil {
		t.Fatalf("StartMachine: %v", err)
	}
	if err := StopMachine(ctx, vbox, "default", false).Err(); err != nil {
		t.Fatalf("StopMachine: %v", err)
	}
	if err := StopMachine(ctx, vbox, "default", true).Err(); err != nil {
		t.Fatalf("StopMachine force: %v", err)
	}

	want := map[string]int{
		"startvm default --type headless":   1,
		"controlvm default acpipowerbutton": 1,
		"controlvm default poweroff":        1,
		"--version":                         1,
	}
	for match, n := range want {
		if got := runner.Count(match); got != n {
			t.Errorf("Count(%q) = %d, want %d", match, got, n)
		}
	}
}
