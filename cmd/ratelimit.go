// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrieke/year-on-github/internal/content"
	"github.com/jrieke/year-on-github/internal/gateway"
)

var ratelimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Shows the remaining GitHub API quota",
	Long:  `Shows the remaining calls on the REST and GraphQL APIs and the time until each quota resets.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags)
		if verbose {
			logger.SetOutput(os.Stderr)
		}

		tokens := apiTokens()
		if len(tokens) == 0 {
			fmt.Fprintln(os.Stderr, "Error: GH_TOKEN environment variable is not set.")
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(tokens, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		info, err := githubGateway.RateLimit(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get rate limits: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("REST API:    %d calls remaining (resets in %s)\n",
			info.CoreRemaining, content.FormatDuration(time.Until(info.CoreReset)))
		fmt.Printf("GraphQL API: %d calls remaining (resets in %s)\n",
			info.GraphQLRemaining, content.FormatDuration(time.Until(info.GraphQLReset)))
	},
}

func init() {
	rootCmd.AddCommand(ratelimitCmd)
}
