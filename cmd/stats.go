// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/jrieke/year-on-github/internal/domain"
	"github.com/jrieke/year-on-github/internal/gateway"
	"github.com/jrieke/year-on-github/internal/usecase"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Computes yearly stats for a user and outputs them as JSON",
	Long: `Computes contributions, repos contributed to, and per-repo new stars for a
GitHub user or org in a calendar year, and outputs the result in JSON format.
Progress is streamed to stderr while large repositories are resolved.`,
	Run: func(cmd *cobra.Command, args []string) {
		maker, summary := runStream(cmd)
		jsonData, err := json.MarshalIndent(buildReport(maker, summary), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addStreamFlags(statsCmd)
}

// addStreamFlags registers the flags shared by the stats and tweet commands.
func addStreamFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "Target GitHub user or org name (required)")
	cmd.Flags().IntP("year", "y", time.Now().Year(), "Target calendar year")
	cmd.Flags().StringSlice("include-external", nil, "External repos (owner/name) to include in the count")
	cmd.Flags().Bool("all-external", false, "Include all external repos the user contributed to")
	cmd.MarkFlagRequired("user")
}

// runStream builds a session, consumes its stream while showing progress on
// stderr, and returns the session plus the final summary. Exits the process
// on failure.
func runStream(cmd *cobra.Command) (*usecase.StatsMaker, domain.Summary) {
	ctx := context.Background()

	// Get the verbose flag from the root command to set up the logger.
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}

	username, _ := cmd.Flags().GetString("user")
	year, _ := cmd.Flags().GetInt("year")
	includeExternal, _ := cmd.Flags().GetStringSlice("include-external")
	allExternal, _ := cmd.Flags().GetBool("all-external")

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

	maker, err := usecase.NewStatsMaker(ctx, githubGateway, username, year, logger)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			fmt.Fprintf(os.Stderr, "Couldn't find user %s. Did you make a typo?\n", username)
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load user %s: %v\n", username, err)
		}
		os.Exit(1)
	}

	if allExternal {
		includeExternal = maker.ExternalRepoNames()
	}

	// Progress goes to stderr so stdout stays clean JSON. The spinner is
	// skipped in verbose mode to keep the log readable.
	var spin *spinner.Spinner
	if !verbose {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Start()
		defer spin.Stop()
	}

	var summary domain.Summary
	stream := maker.Stream(includeExternal)
	for {
		update, ok, err := stream.Next(ctx)
		if err != nil {
			if spin != nil {
				spin.Stop()
			}
			switch {
			case errors.Is(err, domain.ErrRateLimited):
				fmt.Fprintf(os.Stderr, "API quota exhausted: %v\n", err)
			case errors.Is(err, domain.ErrUpstreamUnavailable):
				fmt.Fprintf(os.Stderr, "GitHub is unavailable, try again later (resolved repos are kept): %v\n", err)
			default:
				fmt.Fprintf(os.Stderr, "Failed to compute stats: %v\n", err)
			}
			os.Exit(1)
		}
		if !ok {
			break
		}
		summary = update.Summary
		if spin != nil {
			spin.Suffix = fmt.Sprintf(" %3.0f%% %s", update.Progress*100, update.Message)
		} else {
			logger.Printf("%3.0f%% %s", update.Progress*100, update.Message)
		}
	}
	return maker, summary
}

// repoReport is the per-repo block of the JSON output. NewStars is null for
// external repos that were not selected for resolution.
type repoReport struct {
	FullName   string `json:"full_name"`
	TotalStars int    `json:"total_stars"`
	NewStars   *int   `json:"new_stars"`
}

type starDistribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

type report struct {
	domain.Summary
	Repos        []repoReport      `json:"repos"`
	Distribution *starDistribution `json:"star_distribution,omitempty"`
}

func buildReport(maker *usecase.StatsMaker, summary domain.Summary) report {
	repos := maker.Repos()
	repoReports := make([]repoReport, 0, len(repos))
	var values []float64
	for _, repo := range repos {
		entry := repoReport{FullName: repo.FullName, TotalStars: repo.TotalStars}
		if newStars, known := repo.NewStars.Known(); known {
			entry.NewStars = &newStars
			values = append(values, float64(newStars))
		}
		repoReports = append(repoReports, entry)
	}

	out := report{Summary: summary, Repos: repoReports}
	if len(values) > 0 {
		mean, _ := stats.Mean(values)
		median, _ := stats.Median(values)
		maxStars, _ := stats.Max(values)
		out.Distribution = &starDistribution{Mean: mean, Median: median, Max: maxStars}
	}
	return out
}
