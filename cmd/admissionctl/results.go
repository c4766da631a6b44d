// cmd/admissionctl/results.go
package main

import (
	"fmt"
	"io"

	"admission-workers/internal/common/database"
	"admission-workers/internal/models"
	"admission-workers/internal/search"

	"github.com/spf13/cobra"
)

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Query the admission results index",
	}
	cmd.AddCommand(resultsSearchCmd())
	return cmd
}

func resultsSearchCmd() *cobra.Command {
	var (
		category string
		status   string
		name     string
		from     int
		size     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search indexed results by category, status or applicant name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := search.Query{Name: name, From: from, Size: size}
			if category != "" {
				c, err := models.ParseCategory(category)
				if err != nil {
					return err
				}
				q.Category = c
			}
			if status != "" {
				q.Status = models.FormStatus(status)
			}

			es, err := database.NewElasticsearch(appCfg.Database.Elasticsearch, nil)
			if err != nil {
				return err
			}
			index, err := search.NewResultsIndex(es.Client, appCfg.Admission.ResultsIndex)
			if err != nil {
				return err
			}

			docs, err := index.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printResults(cmd.OutOrStdout(), docs)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category code or label")
	cmd.Flags().StringVar(&status, "status", "", "application status, e.g. FIRST_PASSED")
	cmd.Flags().StringVar(&name, "name", "", "applicant name")
	cmd.Flags().IntVar(&from, "from", 0, "offset of the first hit")
	cmd.Flags().IntVar(&size, "size", 20, "number of hits")
	return cmd
}

func printResults(out io.Writer, docs []search.ResultDocument) error {
	if len(docs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no results"))
		return nil
	}
	t := newTable(out, "Exam no", "Name", "Category", "Status", "Other region", "First round", "Total")
	for _, d := range docs {
		t.row(d.ExaminationNumber, d.Name, d.CategoryLabel, d.Status, d.OtherRegion,
			orDash(d.FirstRoundScore), orDash(d.TotalScore))
	}
	return t.flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
