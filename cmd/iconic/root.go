package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oukeidos/iconic/internal/cleanup"
	"github.com/oukeidos/iconic/internal/config"
	"github.com/oukeidos/iconic/internal/files"
	"github.com/oukeidos/iconic/internal/logger"
	"github.com/oukeidos/iconic/internal/version"
)

type globalOptions struct {
	dataDir     string
	debug       bool
	logFilePath string
	env         config.Env
}

func (o *globalOptions) paths() config.Paths {
	return config.NewPaths(config.ResolveDataDir(o.dataDir, o.env))
}

func execute() {
	cmd := newRootCmd()
	err := cmd.Execute()
	if cleanupErr := cleanup.RunAll(); cleanupErr != nil {
		fmt.Fprintln(os.Stderr, cleanupErr)
		if err == nil {
			err = cleanupErr
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "iconic",
		Short: "Rotating server icon manager",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if hasAnyFlagSet(cmd) {
				_ = cmd.Usage()
				return fmt.Errorf("a command is required")
			}
			return cmd.Help()
		},
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetUsageTemplate(rootUsageTemplate)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Data directory holding icons/, input-icons/ and config.toml (env ICONIC_DATA_DIR)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.StringVar(&opts.logFilePath, "log-file", "", "Path to save machine-readable JSONL logs")

	cmd.AddCommand(
		newAboutCmd(),
		newLicensesCmd(),
		newServeCmd(opts),
		newRefreshCmd(opts),
		newListCmd(opts),
		newDownloadCmd(opts),
		newSetCmd(opts),
		newProcessCmd(opts),
		newSetIntervalCmd(opts),
		newSetModeCmd(opts),
		newAddDateIconCmd(opts),
		newRemoveDateIconCmd(opts),
		newRenameCmd(opts),
	)

	cmd.InitDefaultCompletionCmd()
	for _, sub := range cmd.Commands() {
		if sub.Name() == "completion" {
			sub.Short = "Generate the autocompletion script for the specified shell"
			sub.SetUsageTemplate(subcommandUsageTemplate)
			break
		}
	}

	return cmd
}

func setupLogging(opts *globalOptions) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	opts.env = env

	level := logger.ParseLevel(env.LogLevel)
	if opts.debug {
		level = logger.LevelDebug
	}
	var logFileW io.Writer
	if opts.logFilePath != "" {
		if err := files.RejectSymlinkPath(opts.logFilePath); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register("log file", f.Close)
		logFileW = f
	}
	logger.Init(level, logFileW)
	return nil
}

func hasAnyFlagSet(cmd *cobra.Command) bool {
	changed := false
	cmd.Flags().Visit(func(_ *pflag.Flag) {
		changed = true
	})
	return changed
}
