// cmd/admissionctl/migrate.go
package main

import (
	"fmt"

	"admission-workers/internal/repository"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the applications and notifications tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b := &backend{}
			defer b.close()
			if err := openPostgres(cmd.Context(), b); err != nil {
				return err
			}

			if err := repository.NewApplications(b.pg.DB).Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
