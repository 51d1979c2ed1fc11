package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqforge/triopileup/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.GetLongVersion())
		},
	}
}
