// Package cli implements the cardctl administration commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/SanjarHikmatov/unired-task/internal/config"
	"github.com/SanjarHikmatov/unired-task/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

// app carries the dependencies shared by every command
type app struct {
	repo *repository.Repository
	db   *sql.DB
	log  *logrus.Logger
	out  io.Writer
}

// NewRootCommand builds cardctl. The database is opened from the
// environment configuration before a command runs.
func NewRootCommand(log *logrus.Logger) *cobra.Command {
	return newRootCommand(&app{log: log})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cardctl",
		Short:         "Administration tool for the card directory",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}

	root.AddCommand(populateErrorsCmd(a))
	root.AddCommand(addCardCmd(a))
	root.AddCommand(exportCardsCmd(a))
	root.AddCommand(sendFakeMessageCmd(a))
	return root
}

func (a *app) connect(ctx context.Context) error {
	if a.repo != nil {
		return nil
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DBConn)
	if err != nil {
		return err
	}
	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return err
	}

	a.db = db
	a.repo = repo
	return nil
}
