package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/substance/internal/config"
	"github.com/javanstorm/substance/internal/version"
	"github.com/javanstorm/substance/pkg/hypervisor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host setup",
	Long: `Check settings, the base directory and the installed VirtualBox version.

Prints install instructions when VBoxManage is missing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	problems := 0

	fmt.Fprintln(out, version.String())
	fmt.Fprintf(out, "Base: %s\n", current.paths.BaseDir)
	if current.settings.File != "" {
		fmt.Fprintf(out, "Settings: %s\n", current.settings.File)
	}

	if errs := config.ValidateSettings(current.settings); len(errs) > 0 {
		fmt.Fprint(out, config.FormatValidationErrors(errs))
	}

	if err := current.core.AssertPaths().Err(); err != nil {
		fmt.Fprintf(out, "[FAIL] base directory: %v\n", err)
		problems++
	} else {
		fmt.Fprintln(out, "[ OK ] base directory")
	}
	current.timer.Mark("paths")

	d, err := current.core.Driver(current.settings.Driver)
	if err != nil {
		return err
	}
	info := d.Info()
	vbox, ok := d.(*hypervisor.VirtualBox)
	if !ok {
		return fmt.Errorf("doctor does not know driver %q", info.Name)
	}

	raw, err := vbox.ReadVersion(cmd.Context()).Unwrap()
	current.timer.Mark("version")
	if err != nil {
		fmt.Fprintf(out, "[FAIL] %s: %v\n", info.Executable, err)
		for _, hint := range hypervisor.InstallHints() {
			fmt.Fprintf(out, "       %s\n", hint)
		}
		return fmt.Errorf("%d problem(s) found", problems+1)
	}

	if err := hypervisor.CheckVersion(raw, info.Minimum).Err(); err != nil {
		fmt.Fprintf(out, "[FAIL] VirtualBox %s: %v\n", raw, err)
		if hypervisor.OrdersAtLeast(raw, info.Minimum) {
			fmt.Fprintf(out, "       %s sorts above %s but fails the per-component check\n", raw, info.Minimum)
		}
		problems++
	} else {
		fmt.Fprintf(out, "[ OK ] VirtualBox %s (minimum %s)\n", raw, info.Minimum)
	}

	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	fmt.Fprintln(out, "No problems found.")
	return nil
}
