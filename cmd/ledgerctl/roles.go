package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"mangaledger/internal/ledger"
	"mangaledger/pkg/database"
)

// defaultRoles is the seed set the group works with.
var defaultRoles = []struct {
	Name        string
	Description string
}{
	{"translator", "translates the chapter text"},
	{"cleaner", "cleans raw scans"},
	{"typesetter", "typesets the translated text"},
	{"editor", "final readthrough and corrections"},
}

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage pipeline roles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert the default role set (skips roles that already exist)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *ledger.Repo) error {
				for _, seed := range defaultRoles {
					existing, err := repo.GetRoleByName(ctx, seed.Name)
					if err != nil {
						return err
					}
					if existing != nil {
						fmt.Printf("  %s already present\n", seed.Name)
						continue
					}
					if _, err := repo.CreateRole(ctx, seed.Name, seed.Description); err != nil {
						return err
					}
					color.Green("✓ created %s", seed.Name)
				}
				return nil
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a single role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			return withRepo(func(ctx context.Context, repo *ledger.Repo) error {
				id, err := repo.CreateRole(ctx, args[0], description)
				if err != nil {
					return fmt.Errorf("create role: %w", err)
				}
				color.Green("✓ created role %d: %s", id, args[0])
				return nil
			})
		},
	}
	addCmd.Flags().String("description", "", "role description")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(func(ctx context.Context, repo *ledger.Repo) error {
				roles, err := repo.ListRoles(ctx)
				if err != nil {
					return err
				}
				if len(roles) == 0 {
					fmt.Println("No roles found")
					return nil
				}
				for _, role := range roles {
					fmt.Printf("%-4d %-14s %s\n", role.ID, role.Name, role.Description)
				}
				return nil
			})
		},
	})

	return cmd
}

// withRepo opens the database, runs fn and closes everything again.
func withRepo(fn func(context.Context, *ledger.Repo) error) error {
	db, err := database.Open(database.DefaultConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	return fn(context.Background(), ledger.NewRepo(db))
}

// withDB is withRepo for commands that need the raw handle.
func withDB(fn func(context.Context, *sql.DB) error) error {
	db, err := database.Open(database.DefaultConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	return fn(context.Background(), db)
}
