// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/jrieke/year-on-github/internal/domain"
)

// StarPageSize is the fixed page size of the stargazer timeline. The whole
// year-boundary search arithmetic depends on it, so it is part of the
// external contract, not a tunable.
const StarPageSize = 100

// maxExternalRepos is the cap GitHub applies to commitContributionsByRepository.
const maxExternalRepos = 100

// StarEvent is one entry of a repository's stargazer timeline. Pages are
// ordered ascending by StarredAt (page 1 holds the oldest stars).
type StarEvent struct {
	StarredAt time.Time
}

// RepoInit is the initial snapshot of a repository as returned by the bulk
// user-context load.
type RepoInit struct {
	FullName    string
	CreatedYear int
	TotalStars  int
}

// UserContext is the result of the one-time bulk load that seeds a
// resolution session.
type UserContext struct {
	IsOrg              bool
	Contributions      int
	ReposContributedTo domain.RepoCount
	OwnRepos           []RepoInit

	// ExternalRepos is ordered by descending contribution weight, as
	// supplied by the API. The order is significant downstream.
	ExternalRepos []RepoInit
}

// RateLimitInfo reports the remaining API quota on both endpoints.
type RateLimitInfo struct {
	CoreRemaining    int
	CoreReset        time.Time
	GraphQLRemaining int
	GraphQLReset     time.Time
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// LoadUserContext classifies the account and loads its repositories
	// and contribution counts. Fails with domain.ErrAccountNotFound if
	// the account does not exist.
	LoadUserContext(ctx context.Context, username string, year int) (*UserContext, error)
	// FetchStarPage fetches one page of the stargazer timeline of a
	// repository, oldest first, StarPageSize entries per page.
	FetchStarPage(ctx context.Context, fullName string, page int) ([]StarEvent, error)
	// RateLimit returns the remaining quota on the REST and GraphQL APIs.
	RateLimit(ctx context.Context) (*RateLimitInfo, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// rotatingTokenSource cycles through several tokens, one per request, to
// spread load across quotas. Safe for concurrent use.
type rotatingTokenSource struct {
	mu     sync.Mutex
	next   int
	tokens []string
}

func (s *rotatingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.tokens[s.next%len(s.tokens)]
	s.next++
	return &oauth2.Token{AccessToken: token}, nil
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// Responses are cached in memory for the lifetime of the gateway, so repeated
// sessions for the same account reuse earlier pages where ETags allow it.
func NewGitHubGateway(tokens []string, logger *log.Logger) (Fetcher, error) {
	if len(tokens) == 0 {
		return nil, errors.New("at least one API token is required")
	}
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(cacheTransport, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	var ts oauth2.TokenSource
	if len(tokens) == 1 {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tokens[0]})
	} else {
		ts = &rotatingTokenSource{tokens: tokens}
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// contributionsQuery fetches the per-year contribution collection: total
// contributions, number of repos contributed to, and the contributed repos
// themselves, sorted by contribution count by the API.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int
			}
			TotalRepositoriesWithContributedCommits int
			CommitContributionsByRepository         []struct {
				Repository struct {
					NameWithOwner  string
					CreatedAt      githubv4.DateTime
					StargazerCount int
				}
			} `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

func (g *GitHubGateway) LoadUserContext(ctx context.Context, username string, year int) (*UserContext, error) {
	g.logger.Printf("Loading user context for %s (%d)...", username, year)

	// Account classification has to happen first; the repo listing
	// endpoint differs for users and organizations.
	user, _, err := g.restClient.Users.Get(ctx, username)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("user %s: %w", username, domain.ErrAccountNotFound)
		}
		return nil, classify("failed to get user", err)
	}

	uc := &UserContext{IsOrg: user.GetType() == "Organization"}

	// The REST repo listing and the GraphQL contribution query are
	// independent; fetch them concurrently.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		repos, err := g.listOwnRepos(egCtx, username, uc.IsOrg)
		if err != nil {
			return err
		}
		uc.OwnRepos = repos
		return nil
	})
	if !uc.IsOrg {
		eg.Go(func() error {
			return g.loadContributions(egCtx, username, year, uc)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Printf("Loaded %d own repos, %d external repos for %s", len(uc.OwnRepos), len(uc.ExternalRepos), username)
	return uc, nil
}

func (g *GitHubGateway) listOwnRepos(ctx context.Context, username string, isOrg bool) ([]RepoInit, error) {
	var out []RepoInit
	if isOrg {
		opts := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: StarPageSize}}
		for {
			repos, resp, err := g.restClient.Repositories.ListByOrg(ctx, username, opts)
			if err != nil {
				return nil, classify("failed to list org repos", err)
			}
			out = appendRepoInits(out, repos)
			if resp.NextPage == 0 {
				break
			}
			opts.Page = resp.NextPage
			g.logger.Println("  Fetching next page of repos...")
		}
		return out, nil
	}
	opts := &github.RepositoryListByUserOptions{Type: "owner", ListOptions: github.ListOptions{PerPage: StarPageSize}}
	for {
		repos, resp, err := g.restClient.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return nil, classify("failed to list user repos", err)
		}
		out = appendRepoInits(out, repos)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Println("  Fetching next page of repos...")
	}
	return out, nil
}

func appendRepoInits(out []RepoInit, repos []*github.Repository) []RepoInit {
	for _, repo := range repos {
		out = append(out, RepoInit{
			FullName:    repo.GetFullName(),
			CreatedYear: repo.GetCreatedAt().Year(),
			TotalStars:  repo.GetStargazersCount(),
		})
	}
	return out
}

func (g *GitHubGateway) loadContributions(ctx context.Context, username string, year int, uc *UserContext) error {
	variables := map[string]interface{}{
		"login": githubv4.String(username),
		"from":  githubv4.DateTime{Time: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)},
		"to":    githubv4.DateTime{Time: time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)},
	}
	var q contributionsQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return classify("failed to execute contributions query", err)
	}

	collection := q.User.ContributionsCollection
	uc.Contributions = collection.ContributionCalendar.TotalContributions
	uc.ReposContributedTo = domain.RepoCount{
		N:          collection.TotalRepositoriesWithContributedCommits,
		LowerBound: collection.TotalRepositoriesWithContributedCommits > maxExternalRepos,
	}
	for _, contribution := range collection.CommitContributionsByRepository {
		repo := contribution.Repository
		owner, _, _ := strings.Cut(repo.NameWithOwner, "/")
		if strings.EqualFold(owner, username) {
			continue
		}
		uc.ExternalRepos = append(uc.ExternalRepos, RepoInit{
			FullName:    repo.NameWithOwner,
			CreatedYear: repo.CreatedAt.Year(),
			TotalStars:  repo.StargazerCount,
		})
	}
	return nil
}

func (g *GitHubGateway) FetchStarPage(ctx context.Context, fullName string, page int) ([]StarEvent, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return nil, fmt.Errorf("invalid repository name %q, want owner/name", fullName)
	}
	g.logger.Printf("  Fetching star page %d of %s...", page, fullName)
	opts := &github.ListOptions{Page: page, PerPage: StarPageSize}
	stargazers, _, err := g.restClient.Activity.ListStargazers(ctx, owner, name, opts)
	if err != nil {
		return nil, classify(fmt.Sprintf("failed to list stargazers of %s", fullName), err)
	}
	events := make([]StarEvent, 0, len(stargazers))
	for _, stargazer := range stargazers {
		events = append(events, StarEvent{StarredAt: stargazer.GetStarredAt().Time})
	}
	return events, nil
}

func (g *GitHubGateway) RateLimit(ctx context.Context) (*RateLimitInfo, error) {
	limits, _, err := g.restClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, classify("failed to get rate limits", err)
	}
	info := &RateLimitInfo{}
	if core := limits.GetCore(); core != nil {
		info.CoreRemaining = core.Remaining
		info.CoreReset = core.Reset.Time
	}
	if graphql := limits.GetGraphQL(); graphql != nil {
		info.GraphQLRemaining = graphql.Remaining
		info.GraphQLReset = graphql.Reset.Time
	}
	return info, nil
}

// classify maps transport errors onto the domain taxonomy, keeping the
// original error text for diagnostics.
func classify(op string, err error) error {
	var rateLimitErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateLimitErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrRateLimited)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrUpstreamUnavailable)
}
