package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the watt version",
		Args:  cobra.NoArgs,
		// Printing the version needs no settings.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(_ *cobra.Command, _ []string) {
			a.out.Println("watt %s", Version)
		},
	}
}
