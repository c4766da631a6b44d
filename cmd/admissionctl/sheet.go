// cmd/admissionctl/sheet.go
package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"admission-workers/internal/admission"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func readGrid(path string) (admission.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var grid admission.Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", path, err)
	}
	return grid, nil
}

// dataRows counts the non-blank rows below the header.
func dataRows(grid admission.Grid) int {
	n := 0
	for r := 1; r < len(grid); r++ {
		for _, c := range grid[r] {
			if c.Kind != admission.CellBlank {
				n++
				break
			}
		}
	}
	return n
}

func validateSheetCmd() *cobra.Command {
	var expected int

	cmd := &cobra.Command{
		Use:   "validate-sheet <file.json>",
		Short: "Check a second-round score sheet without touching the database",
		Long: `Parses a score sheet exported as a JSON array of rows and prints every
invalid cell, or the validated rows sorted by examination number. The
first row is the header. --expected defaults to the number of non-blank
data rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := readGrid(args[0])
			if err != nil {
				return err
			}
			quota, err := appCfg.Admission.QuotaConfig()
			if err != nil {
				return err
			}
			return runValidateSheet(cmd.OutOrStdout(), grid, expected, quota)
		},
	}

	cmd.Flags().IntVar(&expected, "expected", 0, "number of FIRST_PASSED applicants the sheet must cover")
	return cmd
}

func runValidateSheet(out io.Writer, grid admission.Grid, expected int, quota admission.QuotaConfig) error {
	if expected <= 0 {
		expected = dataRows(grid)
	}

	rows, err := admission.ParseScoreSheet(grid, expected, quota)
	var sheetErr *admission.SheetError
	if stderrors.As(err, &sheetErr) {
		fmt.Fprintf(out, "%s %d invalid cell(s)\n\n", errorStyle.Render(sheetErr.Code()), len(sheetErr.Cells))
		t := newTable(out, "Cell", "Kind", "Reason")
		for _, c := range sheetErr.Cells {
			t.row(c.Cell, c.Kind, c.Reason)
		}
		if ferr := t.flush(); ferr != nil {
			return ferr
		}
		return fmt.Errorf("score sheet rejected: %s", sheetErr.Code())
	}
	if err != nil {
		return err
	}

	t := newTable(out, "Row", "Exam no", "Name", "Category", "Present", "Interview", "NCS", "Coding")
	for _, r := range rows {
		present := "yes"
		if !r.Present {
			present = mutedStyle.Render("no show")
		}
		t.row(r.SheetRow+1, r.ExaminationNumber, r.Name, r.Category.Label(), present,
			scoreText(r.DepthInterview), scoreText(r.NCS), scoreText(r.CodingTest))
	}
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d row(s) valid\n", len(rows))
	return nil
}

func scoreText(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.String()
}

func importScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-scores <file.json>",
		Short: "Import a second-round score sheet for FIRST_PASSED applicants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := readGrid(args[0])
			if err != nil {
				return err
			}

			service, b, err := newSelectionService(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			summary, err := service.ImportSecondRound(cmd.Context(), grid)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s): %d present, %d no show\n",
				summary.Rows, summary.Present, summary.NoShow)
			return nil
		},
	}
}
