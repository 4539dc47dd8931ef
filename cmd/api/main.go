package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/salesflow/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "salesflow",
		Short: "SalesFlow task workflow API server",
		Long:  `SalesFlow coordinates the lifecycle of sales tasks: assignment, activity tracking, offers, and overdue handling.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
