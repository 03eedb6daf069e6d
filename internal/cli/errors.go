package cli

import (
	"fmt"

	"github.com/SanjarHikmatov/unired-task/internal/catalog"
	"github.com/SanjarHikmatov/unired-task/internal/models"
	"github.com/spf13/cobra"
)

func populateErrorsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "populate-errors",
		Short: "Insert the error catalog entries that are missing",
		Long: `Insert the error catalog entries that are missing from the database.
Existing codes are left untouched, so the command can be run repeatedly.

Examples:
  cardctl populate-errors
  cardctl populate-errors --file catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []models.ErrorEntry
				err     error
			)
			if file != "" {
				entries, err = catalog.LoadFile(file)
			} else {
				entries, err = catalog.Defaults()
			}
			if err != nil {
				return err
			}

			created, existed, err := catalog.Populate(cmd.Context(), a.repo, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %d error entries, %d already existed\n", created, existed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog to load instead of the built-in one")
	return cmd
}
