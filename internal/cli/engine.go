package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/substance/internal/engine"
)

var engineCmd = &cobra.Command{
	Use:     "engine",
	Aliases: []string{"engines"},
	Short:   "Manage engines",
	Long:    `Create, list, delete, start and stop engines.`,
}

var engineListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all engines",
	Args:    cobra.NoArgs,
	RunE:    runEngineList,
}

var engineCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new engine",
	Long:  `Create an engine directory with a generated engine.yml and SSH key pair.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineCreate,
}

var engineDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an engine",
	Long:  `Delete an engine directory and everything in it. This cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineDelete,
}

var engineShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show engine details",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineShow,
}

var engineStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start an engine's machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineStart,
}

var engineStopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop an engine's machine",
	Long:  `Ask the guest to shut down, or power it off immediately with --force.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineStop,
}

var engineStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show an engine's machine state",
	Args:  cobra.ExactArgs(1),
	RunE:  runEngineStatus,
}

// Flags for engine create
var (
	engineCreateCPUs    int
	engineCreateMemory  int
	engineCreateProfile string
	engineCreateDriver  string
)

// Flag for engine stop
var engineStopForce bool

func init() {
	def := engine.DefaultProfile()
	engineCreateCmd.Flags().IntVarP(&engineCreateCPUs, "cpus", "c", def.CPUs, "Number of virtual CPUs")
	engineCreateCmd.Flags().IntVarP(&engineCreateMemory, "memory", "m", def.Memory, "Memory in MB")
	engineCreateCmd.Flags().StringVarP(&engineCreateProfile, "profile", "p", def.Name, "Profile name")
	engineCreateCmd.Flags().StringVar(&engineCreateDriver, "driver", "", "Hypervisor driver (default from settings)")

	engineStopCmd.Flags().BoolVarP(&engineStopForce, "force", "f", false, "Power off instead of ACPI shutdown")

	engineCmd.AddCommand(engineListCmd)
	engineCmd.AddCommand(engineCreateCmd)
	engineCmd.AddCommand(engineDeleteCmd)
	engineCmd.AddCommand(engineShowCmd)
	engineCmd.AddCommand(engineStartCmd)
	engineCmd.AddCommand(engineStopCmd)
	engineCmd.AddCommand(engineStatusCmd)

	rootCmd.AddCommand(engineCmd)
}

func runEngineList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	engines, err := current.core.Engines().Unwrap()
	if err != nil {
		return fmt.Errorf("list engines: %w", err)
	}
	current.timer.Mark("list")

	if len(engines) == 0 {
		fmt.Fprintln(out, "No engines found. Create one with: substance engine create <name>")
		return nil
	}

	fmt.Fprintln(out, "Engines:")
	for _, e := range engines {
		cfg, err := e.Config()
		if err != nil {
			fmt.Fprintf(out, "  %s (invalid config: %v)\n", e.Name, err)
			continue
		}
		fmt.Fprintf(out, "  %s (%s, %s, %d CPUs, %d MB)\n",
			e.Name, cfg.Driver, cfg.Profile.Name, cfg.Profile.CPUs, cfg.Profile.Memory)
	}
	return nil
}

func runEngineCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	driver := engineCreateDriver
	if driver == "" {
		driver = current.settings.Driver
	}
	profile := &engine.Profile{Name: engineCreateProfile, CPUs: engineCreateCPUs, Memory: engineCreateMemory}

	e, err := current.core.CreateEngine(name, &engine.Config{Driver: driver}, profile).Unwrap()
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	current.timer.Mark("create")

	cfg, err := e.Config()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created engine '%s'\n", name)
	fmt.Fprintf(out, "  ID: %s\n", cfg.ID)
	fmt.Fprintf(out, "  Driver: %s\n", cfg.Driver)
	fmt.Fprintf(out, "  Profile: %s (%d CPUs, %d MB)\n", cfg.Profile.Name, cfg.Profile.CPUs, cfg.Profile.Memory)
	fmt.Fprintf(out, "  Path: %s\n", e.Path)
	return nil
}

func runEngineDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	if err := current.core.GetEngine(name).Err(); err != nil {
		return err
	}
	if !confirm(cmd, fmt.Sprintf("Delete engine '%s' and all its files?", name)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := current.core.RemoveEngine(name).Err(); err != nil {
		return fmt.Errorf("delete engine: %w", err)
	}
	fmt.Fprintf(out, "Deleted engine '%s'\n", name)
	return nil
}

func runEngineShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	e, err := current.core.GetEngine(args[0]).Unwrap()
	if err != nil {
		return err
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	run, err := e.State().Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Engine: %s\n", e.Name)
	fmt.Fprintf(out, "  ID: %s\n", cfg.ID)
	fmt.Fprintf(out, "  Driver: %s\n", cfg.Driver)
	fmt.Fprintf(out, "  Machine: %s\n", e.MachineName())
	fmt.Fprintf(out, "  Profile: %s (%d CPUs, %d MB)\n", cfg.Profile.Name, cfg.Profile.CPUs, cfg.Profile.Memory)
	fmt.Fprintf(out, "  Created: %s\n", cfg.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Path: %s\n", e.Path)
	if fp, err := e.Keys().Fingerprint(); err == nil {
		fmt.Fprintf(out, "  SSH Key: %s\n", fp)
	}
	fmt.Fprintf(out, "  Boots: %d\n", run.BootCount)
	return nil
}

func runEngineStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := current.core.Start(cmd.Context(), name).Err(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	current.timer.Mark("start")
	fmt.Fprintf(cmd.OutOrStdout(), "Started engine '%s'\n", name)
	return nil
}

func runEngineStop(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := current.core.Stop(cmd.Context(), name, engineStopForce).Err(); err != nil {
		return fmt.Errorf("stop engine: %w", err)
	}
	current.timer.Mark("stop")
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped engine '%s'\n", name)
	return nil
}

func runEngineStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	st, err := current.core.Status(cmd.Context(), args[0]).Unwrap()
	if err != nil {
		return fmt.Errorf("engine status: %w", err)
	}
	current.timer.Mark("status")

	fmt.Fprintf(out, "Engine: %s\n", st.Engine.Name)
	fmt.Fprintf(out, "  State: %s\n", st.State)
	fmt.Fprintf(out, "  Boots: %d\n", st.Run.BootCount)
	if !st.Run.LastBoot.IsZero() {
		fmt.Fprintf(out, "  Last Boot: %s\n", st.Run.LastBoot.Format("2006-01-02 15:04:05"))
	}
	if st.Run.DriverVersion != "" {
		fmt.Fprintf(out, "  VirtualBox: %s\n", st.Run.DriverVersion)
	}
	if !st.Run.LastShutdown.IsZero() {
		clean := "clean"
		if !st.Run.CleanShutdown {
			clean = "forced"
		}
		fmt.Fprintf(out, "  Last Shutdown: %s (%s)\n", st.Run.LastShutdown.Format("2006-01-02 15:04:05"), clean)
	}
	return nil
}
