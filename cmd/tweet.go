// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jrieke/year-on-github/internal/content"
)

var tweetCmd = &cobra.Command{
	Use:   "tweet",
	Short: "Renders the shareable year-in-review message",
	Long: `Computes the yearly stats like the stats command and renders them as a
plain-text message ready to share. Organizations get a shorter variant
without the contribution lines.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, summary := runStream(cmd)
		text, err := content.Tweet(summary)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render message: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(text)
	},
}

func init() {
	rootCmd.AddCommand(tweetCmd)
	addStreamFlags(tweetCmd)
}
