package cmd

import (
	"fmt"
	"log"
	"os"

	"FlowieFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowiefm",
	Short: "FlowieFM is a personal music streaming service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting FlowieFM server...")
		// server.Start now handles its own port and logging for startup.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
