package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/arm-dev024/api-samnilabs/internal/config"
	"github.com/arm-dev024/api-samnilabs/internal/logger"
	"github.com/arm-dev024/api-samnilabs/internal/service/packager"
	"github.com/arm-dev024/api-samnilabs/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// projectRoot is the directory holding the application files.
	projectRoot string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd packages the project into a deployable archive.
	rootCmd = &cobra.Command{
		Use:   "lambda-packager",
		Short: "Package a Python serverless application into a deployable zip archive",
		Long: "Resolve the application's dependencies into a temporary workspace, copy the application " +
			"files next to them and compress the result into a single archive ready for upload.",
		Args:              cobra.NoArgs,
		PersistentPreRunE: applyLogLevel,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ProjectRoot:      projectRoot,
				ConfigPath:       configPath,
				GuardProcessName: filepath.Base(os.Args[0]),
				InstallerOutput:  cmd.ErrOrStderr(),
				LogLevel:         logLevel,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the lambda-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Full()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel sets the global level from --log-level before any command runs.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	if logLevel == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return &invalidFlagError{flag: "log-level", value: logLevel}
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to settings file (default "+config.DefaultConfigFilename+" in the project root when present)")
	rootCmd.PersistentFlags().StringVarP(&projectRoot, "dir", "C", ".", "project root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inspectCmd)
}
