package util

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/replicatedhq/testlog-analyzer/pkg/version"
	"github.com/spf13/cobra"
)

// VersionCmd prints the build of appName. With --yaml the full build info is
// printed instead.
func VersionCmd(appName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current version and exit",
		Long:  `Print the current version and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("yaml")
			if !full {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version.Version())
				return nil
			}

			b, err := version.GetVersionFile()
			if err != nil {
				return errors.Wrap(err, "failed to render build info")
			}
			fmt.Fprint(cmd.OutOrStdout(), b)
			return nil
		},
	}

	cmd.Flags().Bool("yaml", false, "print full build information as YAML")

	return cmd
}
