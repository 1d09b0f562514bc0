package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"AnomalyForge/pkg/injecting"
)

// NewClassesCmd creates the classes subcommand.
func NewClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List anomaly class ids and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTAG")
			for _, c := range injecting.Classes() {
				fmt.Fprintf(tw, "%d\t%s\n", int(c), c)
			}
			return tw.Flush()
		},
	}
}
