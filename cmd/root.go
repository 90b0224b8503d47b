package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ballstore",
	Short: "Ballstore CLI",
	Long:  "Operational commands for the ballstore backend: migrations, cron, marketplace sync.",
}

// Execute runs the root command after merging in registered subcommands.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
