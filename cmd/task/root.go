package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/metalagman/tasks/internal/config"
	"github.com/metalagman/tasks/internal/logging"
	"github.com/metalagman/tasks/internal/task"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags.
var version = "dev"

// annotationRawConfig marks commands that edit the config file directly and
// must still run when the current file does not load.
const annotationRawConfig = "raw-config"

// app carries the per-invocation state shared by all commands.
type app struct {
	configPath string
	jsonOut    bool

	v   *viper.Viper
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:           "task",
		Short:         "task is a local task tracker with an HTTP API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file path (default "+config.DefaultPath()+")")
	flags.String("db", "", "database path, overrides database.path")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")
	_ = a.v.BindPFlag("database.path", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.debug", flags.Lookup("debug"))

	cmd.AddCommand(
		addCmd(a),
		listCmd(a),
		showCmd(a),
		editCmd(a),
		doneCmd(a),
		deleteCmd(a),
		restoreCmd(a),
		clearCmd(a),
		dependCmd(a),
		readyCmd(a),
		nextCmd(a),
		searchCmd(a),
		aggregateCmd(a, "tags", "List tags in use", task.Tracker.UniqueTags),
		aggregateCmd(a, "projects", "List projects in use", task.Tracker.UniqueProjects),
		aggregateCmd(a, "assignees", "List assignees in use", task.Tracker.UniqueAssignees),
		exportCmd(a),
		importCmd(a),
		serveCmd(a),
		mcpCmd(a),
		configCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := loadConfig(a.v, a.configFile())
	if err != nil {
		if cmd.Annotations[annotationRawConfig] == "" {
			return err
		}
		log.Warn().Err(err).Msg("config not loaded, using defaults")
		cfg = config.Default()
	}
	a.cfg = cfg
	logging.Init(cfg.Log.Debug, cfg.Log.Format)
	if cmd.Flags().Changed("json") {
		return nil
	}
	a.jsonOut = cfg.Output.Format == config.OutputJSON
	return nil
}

func (a *app) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.DefaultPath()
}

func usageError(err error) error {
	return fmt.Errorf("%w: %v", task.ErrValidation, err)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
