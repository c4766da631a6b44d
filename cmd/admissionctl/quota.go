// cmd/admissionctl/quota.go
package main

import (
	"fmt"
	"io"

	"admission-workers/internal/admission"
	"admission-workers/internal/models"

	"github.com/spf13/cobra"
)

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Print seat targets, regional caps and score ranges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			quota, err := appCfg.Admission.QuotaConfig()
			if err != nil {
				return err
			}
			return printQuota(cmd.OutOrStdout(), quota)
		},
	}
}

func printQuota(out io.Writer, q admission.QuotaConfig) error {
	fmt.Fprintf(out, "total seats: %d  multiplier: %s  other-region rate: %s\n\n",
		q.TotalSeats, q.Multiplier, q.OtherRegionRate)

	t := newTable(out, "Category", "Seats", "First-round target", "Regional cap", "Interview", "NCS", "Coding")
	for _, c := range models.Categories {
		target := q.FirstRoundTarget(c)
		r := q.RangesFor(c)
		coding := "-"
		if r.CodingTest != nil {
			coding = rangeText(*r.CodingTest)
		}
		t.row(c.Label(), q.Seats[c], target, q.RegionalCap(target),
			rangeText(r.DepthInterview), rangeText(r.NCS), coding)
	}
	return t.flush()
}

func rangeText(r admission.ScoreRange) string {
	return r.Min.String() + "-" + r.Max.String()
}
