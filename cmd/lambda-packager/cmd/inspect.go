package cmd

import (
	"github.com/spf13/cobra"

	"github.com/arm-dev024/api-samnilabs/internal/service/inspector"
)

var (
	// manifestPath overrides the manifest used by inspect.
	manifestPath string

	// inspectCmd lists and verifies a built archive.
	inspectCmd = &cobra.Command{
		Use:   "inspect [archive]",
		Short: "List the archive entries and check that it is deployable",
		Long: "List the files of a built archive, check that the entry-point module and the application " +
			"files sit at its root and, when a build manifest exists, that the archive matches it.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &inspector.Options{
				ProjectRoot:  projectRoot,
				ConfigPath:   configPath,
				ManifestPath: manifestPath,
				Out:          cmd.OutOrStdout(),
			}

			if len(args) > 0 {
				options.ArchivePath = args[0]
			}

			return inspector.Run(cmd.Context(), options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	inspectCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "build manifest to verify against")
}
