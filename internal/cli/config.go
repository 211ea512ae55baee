package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/javanstorm/substance/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write the substance.yml document",
	Long: `Read and write keys in <base>/substance.yml.

The document is generated with default values the first time it is read.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the whole document",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one key",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one key and save",
	Long: `Set one key and save the document.

Values are parsed as YAML scalars, so "true" is stored as a boolean and
"4" as a number.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if err := current.core.AssertPaths().Err(); err != nil {
		return err
	}
	doc, err := current.core.Config().Unwrap()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", current.paths.DocumentFile, data)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := current.core.AssertPaths().Err(); err != nil {
		return err
	}
	v, err := current.core.ConfigKey(args[0]).Unwrap()
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("key %q is not set", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], config.ParseValue(args[1])
	if err := current.core.AssertPaths().Err(); err != nil {
		return err
	}
	if err := current.core.SetConfigKey(key, value).Err(); err != nil {
		return err
	}
	if err := current.core.SaveConfig().Err(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
	return nil
}
