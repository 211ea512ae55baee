// Package cli provides the command-line interface for substance.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/javanstorm/substance/internal/config"
	"github.com/javanstorm/substance/internal/engine"
	"github.com/javanstorm/substance/internal/logging"
	"github.com/javanstorm/substance/internal/subenv"
	"github.com/javanstorm/substance/internal/timing"
	"github.com/javanstorm/substance/pkg/shell"
)

// Global flags
var (
	flagBase      string
	flagConfig    string
	flagDebug     bool
	flagYes       bool
	flagTiming    bool
	flagLogFormat string
)

// app is the state shared by every command once settings are loaded.
type app struct {
	settings *config.Settings
	paths    *config.Paths
	log      zerolog.Logger
	core     *engine.Core
	envs     *subenv.API
	timer    *timing.Timer
}

var current *app

// newRunner builds the process runner used by drivers. Tests replace it.
var newRunner = func(log zerolog.Logger) shell.Runner {
	return shell.NewExec(log)
}

// logOutput is where the logger writes. Tests replace it.
var logOutput io.Writer = os.Stderr

var rootCmd = &cobra.Command{
	Use:   "substance",
	Short: "substance - engines and environments on VirtualBox",
	Long: `substance manages engines (VirtualBox-backed virtual machines) and
environments (named project directories, one of which is current).

All state lives in a base directory, ~/.substance by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip settings loading for commands that don't need it
		switch cmd.Name() {
		case "version", "completion", "help":
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.timer.Report(cmd.ErrOrStderr())
		}
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagBase, "base", "b", "", "Base directory (default ~/.substance)")
	pf.StringVar(&flagConfig, "config", "", "Settings file (default <base>/config.yaml)")
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Activate debugging output")
	pf.BoolVarP(&flagYes, "yes", "y", false, "Assume yes when prompted")
	pf.BoolVar(&flagTiming, "timing", false, "Print a timing report after the command")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(versionCmd)
}

func setup() error {
	var timer *timing.Timer
	if flagTiming {
		timer = timing.New("Command")
	}

	settings, err := config.Load(config.LoadOptions{BasePath: flagBase, ConfigFile: flagConfig})
	if err != nil {
		return err
	}
	if flagDebug {
		settings.LogLevel = "debug"
	}
	if flagLogFormat != "" {
		settings.LogFormat = strings.ToLower(flagLogFormat)
	}
	if flagYes {
		settings.AssumeYes = true
	}
	if errs := config.ValidateSettings(settings); config.HasFatal(errs) {
		return fmt.Errorf("invalid settings:\n%s", config.FormatValidationErrors(errs))
	}
	timer.Mark("settings")

	paths, err := settings.Paths()
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{Level: settings.LogLevel, Format: settings.LogFormat, Output: logOutput})
	runner := newRunner(logging.Component(log, "shell"))

	envs := subenv.New(paths, logging.Component(log, "subenv"))
	envs.SetAssumeYes(settings.AssumeYes)

	current = &app{
		settings: settings,
		paths:    paths,
		log:      log,
		core:     engine.NewCore(paths, runner, logging.Component(log, "engine")),
		envs:     envs,
		timer:    timer,
	}
	log.Debug().Str("base", paths.BaseDir).Str("settings", settings.File).Msg("settings loaded")
	return nil
}

// confirm asks a yes/no question on the command's input. --yes answers it.
func confirm(cmd *cobra.Command, question string) bool {
	if current != nil && current.settings.AssumeYes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
