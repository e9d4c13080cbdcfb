package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arm-dev024/api-samnilabs/internal/config"
	"github.com/arm-dev024/api-samnilabs/internal/logger"
)

var (
	// force allows init to overwrite an existing settings file.
	force bool

	// initCmd writes the default settings file.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = filepath.Join(projectRoot, config.DefaultConfigFilename)
			}

			return writeDefaultConfig(cmd, path, force)
		},
	}
)

// writeDefaultConfig saves config.Default to path, refusing to overwrite unless forced.
func writeDefaultConfig(cmd *cobra.Command, path string, overwrite bool) error {
	if !overwrite {
		switch _, err := os.Stat(path); {
		case err == nil:
			return fmt.Errorf("settings file %s already exists, use --force to overwrite", path)
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("stat settings file: %w", err)
		}
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}

	logger.InfoKV(cmd.Context(), "Settings file written", "path", path)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing settings file")
}
