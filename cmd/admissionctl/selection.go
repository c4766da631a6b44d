// cmd/admissionctl/selection.go
package main

import (
	"github.com/spf13/cobra"
)

func selectFirstPassCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "select-first-pass",
		Short: "Run the first-round selection over RECEIVED applications",
		Long: `Ranks RECEIVED applications per category and applies the seat targets
and the other-region cap. With --dry-run the allocation is printed and
nothing is written; otherwise statuses are committed exactly as the
select-first-pass worker would.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, b, err := newSelectionService(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			summary, err := service.SelectFirstPass(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the allocation without writing statuses")
	return cmd
}

func selectSecondPassCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "select-second-pass",
		Short: "Run the final selection over scored FIRST_PASSED applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, b, err := newSelectionService(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			summary, err := service.SelectSecondPass(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the allocation without writing statuses")
	return cmd
}
