package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand adds `version` to root.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the packager build",
		Long: "Print the lambda-packager release recorded in build manifests, the commit and time it was " +
			"built from, and the Go toolchain and platform of the binary.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), root.Name()+" "+Full())
		},
	})
}
