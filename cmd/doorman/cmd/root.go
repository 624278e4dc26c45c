package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "doorman",
	Short: "Doorman is a two-factor authentication service",
	Long: `A two-factor authentication service combining password login with
time-based one-time codes, plus a stateless API-key verification path
for machine clients.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
