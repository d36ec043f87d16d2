package usecase

import (
	"context"
	"log"

	"github.com/jrieke/year-on-github/internal/domain"
	"github.com/jrieke/year-on-github/internal/gateway"
)

// StarResolver decides, per repository, whether the page search is needed
// at all. Most repositories resolve through one of the fast paths and cost
// zero API calls.
type StarResolver struct {
	search *StarSearch
	logger *log.Logger
}

// NewStarResolver creates a new StarResolver instance.
func NewStarResolver(search *StarSearch, logger *log.Logger) *StarResolver {
	return &StarResolver{search: search, logger: logger}
}

// Triage resolves a repository without network I/O where possible: a repo
// with no stars has no new ones, and a repo created in the target year
// keeps all of them. Anything else comes back unresolved and needs Resolve.
// Triage runs once, when the session is built.
func (r *StarResolver) Triage(repo gateway.RepoInit, year int) domain.StarCount {
	switch {
	case repo.TotalStars == 0:
		return domain.ResolvedStars(0)
	case repo.CreatedYear == year:
		return domain.ResolvedStars(repo.TotalStars)
	default:
		return domain.StarCount{}
	}
}

// Resolve computes the new-star count of a repository that survived
// triage, via the year-boundary search.
func (r *StarResolver) Resolve(ctx context.Context, repo *domain.Repo, year int) (int, error) {
	r.logger.Printf("Resolving %s (%d stars total)...", repo.FullName, repo.TotalStars)
	return r.search.NewStarsInYear(ctx, repo.FullName, repo.TotalStars, year)
}
