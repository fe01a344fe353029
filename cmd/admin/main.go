package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rowanhart/tasknest/cmd/admin/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "tasknest-admin",
		Short: "Administration tool for TaskNest",
		Long:  "CLI tool for managing TaskNest accounts",
	}

	rootCmd.AddCommand(commands.NewUsersCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
