package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Admin tool for the scanlation ledger",
		Long:  "Seed roles, inspect the ledger and trigger catalog synchronization from the command line.",
	}

	rootCmd.AddCommand(rolesCmd())
	rootCmd.AddCommand(titlesCmd())
	rootCmd.AddCommand(chaptersCmd())
	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
