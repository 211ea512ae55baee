package hypervisor

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/javanstorm/substance/internal/testutil"
	"github.com/javanstorm/substance/pkg/shell"
)

func TestInvokeReturnsStdout(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12r159484").
		On("list hostonlyifs", testutil.Response{Stdout: "Name: vboxnet0\n"})
	vbox := NewVirtualBox(runner)

	out, err := vbox.Invoke(context.Background(), "list", "hostonlyifs").Unwrap()
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "Name: vboxnet0\n" {
		t.Errorf("stdout = %q", out)
	}

	calls := runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want version check then command", calls)
	}
	if calls[0] != "VBoxManage --version" {
		t.Errorf("first call = %q, want version query", calls[0])
	}
	if calls[1] != "VBoxManage list hostonlyifs" {
		t.Errorf("second call = %q", calls[1])
	}
}

func TestVersionQueriedOnce(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").
		On("list vms", testutil.Response{Stdout: ""})
	vbox := NewVirtualBox(runner)

	for i := 0; i < 5; i++ {
		if err := vbox.Invoke(context.Background(), "list", "vms").Err(); err != nil {
			t.Fatalf("Invoke #%d: %v", i, err)
		}
	}
	if n := runner.Count("--version"); n != 1 {
		t.Errorf("version queried %d times, want 1", n)
	}
	if n := runner.Count("list vms"); n != 5 {
		t.Errorf("list vms ran %d times, want 5", n)
	}
}

func TestFreshDriverHasEmptyCache(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12")
	for i := 0; i < 2; i++ {
		if err := NewVirtualBox(runner).AssertVersion(context.Background()).Err(); err != nil {
			t.Fatalf("AssertVersion: %v", err)
		}
	}
	if n := runner.Count("--version"); n != 2 {
		t.Errorf("each driver should query once, got %d queries", n)
	}
}

func TestInvokeVersionTooOld(t *testing.T) {
	runner := testutil.VirtualBoxRunner("4.3.40r123")
	vbox := NewVirtualBox(runner)

	err := vbox.Invoke(context.Background(), "list", "vms").Err()
	var verr *ToolVersionError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ToolVersionError", err)
	}
	if runner.Count("list vms") != 0 {
		t.Error("command must not run when the precondition fails")
	}

	// Failed checks are not cached.
	_ = vbox.Invoke(context.Background(), "list", "vms")
	if n := runner.Count("--version"); n != 2 {
		t.Errorf("version queried %d times, want 2", n)
	}
}

func TestInvokeExtractsErrorCode(t *testing.T) {
	stderr := "VBoxManage: error: Could not find a registered machine named 'ghost'\n" +
		"VBoxManage: error: Details: code VBOX_E_OBJECT_NOT_FOUND (0x80bb0001), component VirtualBoxWrap\n"
	runner := testutil.VirtualBoxRunner("7.0.12").
		On("showvminfo", testutil.Response{Stderr: stderr, ExitCode: 1})
	vbox := NewVirtualBox(runner)

	err := vbox.Invoke(context.Background(), "showvminfo", "ghost").Err()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if te.Code != CodeObjectNotFound {
		t.Errorf("code = %q, want %q", te.Code, CodeObjectNotFound)
	}
	if te.Message != stderr {
		t.Errorf("message = %q, want raw stderr", te.Message)
	}
	var cmdErr *shell.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 1 {
		t.Error("ToolError should wrap the command failure")
	}
	if !HasCode(err, CodeObjectNotFound) {
		t.Error("HasCode should match")
	}
}

func TestInvokeUncodedError(t *testing.T) {
	runner := testutil.VirtualBoxRunner("7.0.12").
		On("bogus", testutil.Response{Stderr: "Syntax error: unknown command\n", ExitCode: 2})
	vbox := NewVirtualBox(runner)

	err := vbox.Invoke(context.Background(), "bogus", "").Err()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if te.Code != "" {
		t.Errorf("code = %q, want none", te.Code)
	}
	if te.Message != "Syntax error: unknown command\n" {
		t.Errorf("message = %q", te.Message)
	}
}

func TestInvokeNotStarted(t *testing.T) {
	runner := testutil.NewFakeRunner().On("--version", testutil.Response{NotStarted: true})
	vbox := NewVirtualBox(runner, WithExecutable("/opt/vbox/VBoxManage"))

	err := vbox.Invoke(context.Background(), "list", "vms").Err()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if !strings.Contains(te.Message, "/opt/vbox/VBoxManage") {
		t.Errorf("message %q should name the executable", te.Message)
	}
}

func TestInvokeMissingExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
	missing := filepath.Join(t.TempDir(), "VBoxManage")
	vbox := NewVirtualBox(shell.NewExec(zerolog.Nop()), WithExecutable(missing))

	err := vbox.Invoke(context.Background(), "list", "vms").Err()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *ToolError", err)
	}
	if !strings.Contains(te.Message, "is VirtualBox installed?") {
		t.Errorf("message = %q, want install hint", te.Message)
	}
	if !errors.Is(err, shell.ErrCommandNotFound) {
		t.Errorf("err = %v, want ErrCommandNotFound", err)
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"... error: Details: code VBOX_E_OBJECT_NOT_FOUND (0x1) ...", "VBOX_E_OBJECT_NOT_FOUND"},
		{"error: Details: code E_ACCESSDENIED (0x80070005)", "E_ACCESSDENIED"},
		{"line one\nerror: Details: code VBOX_E_INVALID_OBJECT_STATE (0x2)\nerror: Details: code VBOX_E_IPRT_ERROR", "VBOX_E_INVALID_OBJECT_STATE"},
		{"nothing to see", ""},
		{"error: Details: code lowercase", ""},
	}
	for _, tt := range tests {
		if got := ExtractCode(tt.stderr); got != tt.want {
			t.Errorf("ExtractCode(%q) = %q, want %q", tt.stderr, got, tt.want)
		}
	}
}

func TestNewDriver(t *testing.T) {
	runner := testutil.NewFakeRunner()
	for _, name := range []string{"virtualbox", "VirtualBox", ""} {
		d, err := NewDriver(name, runner, zerolog.Nop())
		if err != nil {
			t.Errorf("NewDriver(%q): %v", name, err)
			continue
		}
		if d.Info().Name != DriverVirtualBox {
			t.Errorf("Info().Name = %q", d.Info().Name)
		}
	}
	if _, err := NewDriver("hyperv", runner, zerolog.Nop()); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("NewDriver(hyperv) err = %v, want ErrUnsupportedDriver", err)
	}
	if ValidDriver("qemu") {
		t.Error("qemu is not a supported driver")
	}
}
