package cli

import (
	"github.com/spf13/cobra"

	"github.com/wattwdl/watt/internal/testcase"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the selected tests without running them",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, cases, err := a.loadCases()
			if err != nil {
				return err
			}

			rows := make([][]string, len(cases))
			for i, tc := range cases {
				expect := tc.ExpectedOutputsPath
				if testcase.ExpectsFailure(tc.Expect) {
					expect = "(expect failure)"
				}
				rows[i] = []string{tc.WorkflowName, tc.TestName, tc.WorkflowPath, expect}
			}
			a.out.Table([]string{"WORKFLOW", "TEST", "WDL", "EXPECTED OUTPUTS"}, rows)
			return nil
		},
	}
}
