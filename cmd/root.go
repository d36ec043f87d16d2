// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "year-on-github",
	Short: "A CLI tool to compute yearly GitHub stats for a user or org.",
	Long: `year-on-github computes, for a GitHub account and calendar year, the
total contributions, the number of repositories contributed to, and how many
new stars each repository gained that year (own repos and, optionally,
external repos the user contributed to). Results stream in while large
repositories are being resolved.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// apiTokens reads the GitHub tokens from GH_TOKEN (comma-separated for
// rotation across quotas), loading a .env file first if one exists.
func apiTokens() []string {
	_ = godotenv.Load()
	var tokens []string
	for _, token := range strings.Split(os.Getenv("GH_TOKEN"), ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
