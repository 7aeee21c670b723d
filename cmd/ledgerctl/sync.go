package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mangaledger/internal/catalog"
	"mangaledger/pkg/utils"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the title mirror with the remote catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cfg, err := utils.LoadConfig()
			if err != nil {
				return err
			}

			return withDB(func(ctx context.Context, db *sql.DB) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				importer := catalog.NewImporter(
					catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogSeed, cfg.CatalogTargetID), db)
				n, err := importer.Synchronize(ctx)
				if err != nil {
					return err
				}
				color.Green("✓ synchronized %d titles", n)
				return nil
			})
		},
	}
	cmd.Flags().Duration("timeout", 5*time.Minute, "overall sync timeout")
	return cmd
}
