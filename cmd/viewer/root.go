package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notesync/pkg/logger"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger = "failed to initialize logger"
	ErrSyncLogger = "failed to sync logger"
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

type rootOptions struct {
	logLevel string
	logMode  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "viewer",
		Short:         "Read-only viewer of the synchronized notes collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env := logger.Development
			if strings.EqualFold(opts.logMode, string(logger.Production)) {
				env = logger.Production
			}
			log, err := logger.NewLogger(env, opts.logLevel)
			if err != nil {
				return fmt.Errorf("%s: %w", ErrInitLogger, err)
			}
			logger.SetGlobalLogger(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			syncLogger(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logMode, "log-mode", string(logger.Development), "log mode: development or production")

	cmd.AddCommand(newWatchCmd())
	return cmd
}

func syncLogger(cmd *cobra.Command) {
	err := logger.Log(cmd.Context()).Sync()
	if err == nil {
		return
	}
	errMsg := err.Error()
	if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
}
