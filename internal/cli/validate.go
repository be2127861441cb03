package cli

import (
	"github.com/spf13/cobra"

	"github.com/wattwdl/watt/internal/config"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the test configuration and the files it references",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, cases, err := a.loadCases()
			if err != nil {
				return err
			}
			if _, err := config.Prepare(cases); err != nil {
				return err
			}
			a.out.Success("%s is valid: %s, %s selected", a.settings.Config,
				pluralize(len(cfg.Workflows), "workflow"), pluralize(len(cases), "test"))
			return nil
		},
	}
}
