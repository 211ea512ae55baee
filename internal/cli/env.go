package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanstorm/substance/internal/config"
	"github.com/javanstorm/substance/internal/subenv"
	"github.com/javanstorm/substance/pkg/result"
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"subenv"},
	Short:   "Manage environments",
	Long:    `Create, list, delete and switch between project environments.`,
}

var envListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List all environments",
	Long:    `List all environments, marking the current one with *.`,
	Args:    cobra.NoArgs,
	RunE:    runEnvList,
}

var envCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new environment",
	Long: `Create a new environment. With --from, the environment starts as a copy
of the given template directory.`,
	Args: cobra.ExactArgs(1),
	RunE:  runEnvCreate,
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an environment",
	Long:  `Delete an environment directory and everything in it. This cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvDelete,
}

var envUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current environment",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvUse,
}

var envCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current environment",
	Args:  cobra.NoArgs,
	RunE:  runEnvCurrent,
}

// Flags for env create
var (
	envCreateUse  bool
	envCreateFrom string
)

func init() {
	envCreateCmd.Flags().BoolVar(&envCreateUse, "use", false, "Make the new environment current")
	envCreateCmd.Flags().StringVar(&envCreateFrom, "from", "", "Template directory to copy into the new environment")

	envCmd.AddCommand(envListCmd)
	envCmd.AddCommand(envCreateCmd)
	envCmd.AddCommand(envDeleteCmd)
	envCmd.AddCommand(envUseCmd)
	envCmd.AddCommand(envCurrentCmd)

	rootCmd.AddCommand(envCmd)
}

func runEnvList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	envs, err := current.envs.List().Unwrap()
	if err != nil {
		return fmt.Errorf("list environments: %w", err)
	}

	if len(envs) == 0 {
		fmt.Fprintln(out, "No environments found. Create one with: substance env create <name>")
		return nil
	}

	fmt.Fprintln(out, "Environments:")
	for _, e := range envs {
		marker := " "
		if e.Current {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, e.Name)
	}
	return nil
}

func runEnvCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	var created result.Result[subenv.Environment]
	if envCreateFrom != "" {
		template, err := config.ExpandPath(envCreateFrom)
		if err != nil {
			return fmt.Errorf("create environment: %w", err)
		}
		created = current.envs.CreateFrom(name, template)
	} else {
		created = current.envs.Create(name)
	}
	env, err := created.Unwrap()
	if err != nil {
		return fmt.Errorf("create environment: %w", err)
	}
	fmt.Fprintf(out, "Created environment '%s' in %s\n", name, env.Path)

	if envCreateUse {
		return useEnv(cmd, name)
	}
	fmt.Fprintf(out, "To use this environment: substance env use %s\n", name)
	return nil
}

func runEnvDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	env, err := current.envs.Get(name).Unwrap()
	if err != nil {
		return err
	}
	if !confirm(cmd, fmt.Sprintf("Delete environment '%s' and all its files?", name)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := current.envs.Delete(name).Err(); err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	fmt.Fprintf(out, "Deleted environment '%s'\n", name)
	if env.Current {
		fmt.Fprintln(out, "Note: no environment is current now. Select one with: substance env use <name>")
	}
	return nil
}

func runEnvUse(cmd *cobra.Command, args []string) error {
	return useEnv(cmd, args[0])
}

func useEnv(cmd *cobra.Command, name string) error {
	if err := current.envs.Use(name).Err(); err != nil {
		return fmt.Errorf("use environment: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current substance environment now: '%s'\n", name)
	return nil
}

func runEnvCurrent(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	env, ok := current.envs.Current()
	if !ok {
		fmt.Fprintln(out, "No current environment. Select one with: substance env use <name>")
		return nil
	}
	fmt.Fprintf(out, "%s (%s)\n", env.Name, env.Path)
	return nil
}
