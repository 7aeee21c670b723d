package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mangaledger/internal/ledger"
)

func titlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "List mirrored titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *ledger.Repo) error {
				titles, err := repo.ListTitles(ctx)
				if err != nil {
					return err
				}
				if len(titles) == 0 {
					fmt.Println("No titles found, run sync first")
					return nil
				}
				for _, t := range titles {
					fmt.Printf("%-6d %s\n", t.ID, t.DisplayName())
				}
				return nil
			})
		},
	}
}

func chaptersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "List ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			perPage, _ := cmd.Flags().GetInt("per-page")

			return withRepo(func(ctx context.Context, repo *ledger.Repo) error {
				entries, err := repo.ListChapters(ctx, page, perPage)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Println("No entries on this page")
					return nil
				}
				for _, e := range entries {
					fmt.Printf("%-6d %-30s ch.%-7.4g %-12s %s\n", e.ID, e.Title, e.Chapter, e.Role, e.Contributor)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("per-page", 20, "entries per page")
	return cmd
}
