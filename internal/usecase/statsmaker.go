package usecase

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/jrieke/year-on-github/internal/domain"
	"github.com/jrieke/year-on-github/internal/gateway"
)

// StatsMaker owns one resolution session for a (username, year) pair. It
// loads the user context exactly once at construction, pre-resolves every
// repository the triage can settle, and hands out streams that resolve the
// remaining ones a repository at a time.
//
// Repository records are owned exclusively by the session: only the stream
// writes new-star values, each exactly once. A value never changes after
// it is set.
type StatsMaker struct {
	username           string
	year               int
	isOrg              bool
	contributions      int
	reposContributedTo domain.RepoCount

	own      []*domain.Repo
	external []*domain.Repo // contribution-weight order, significant
	extIndex map[string]*domain.Repo

	resolver *StarResolver
	logger   *log.Logger
}

// NewStatsMaker creates a session for username and year. It performs the
// one-time bulk load through the fetcher and fails with
// domain.ErrAccountNotFound (no partial session) for unknown accounts.
func NewStatsMaker(ctx context.Context, fetcher gateway.Fetcher, username string, year int, logger *log.Logger) (*StatsMaker, error) {
	uc, err := fetcher.LoadUserContext(ctx, username, year)
	if err != nil {
		return nil, err
	}

	m := &StatsMaker{
		username:           username,
		year:               year,
		isOrg:              uc.IsOrg,
		contributions:      uc.Contributions,
		reposContributedTo: uc.ReposContributedTo,
		extIndex:           make(map[string]*domain.Repo, len(uc.ExternalRepos)),
		resolver:           NewStarResolver(NewStarSearch(fetcher, logger), logger),
		logger:             logger,
	}
	for _, init := range uc.OwnRepos {
		m.own = append(m.own, m.newRepo(init))
	}
	for _, init := range uc.ExternalRepos {
		repo := m.newRepo(init)
		m.external = append(m.external, repo)
		m.extIndex[repo.FullName] = repo
	}
	return m, nil
}

func (m *StatsMaker) newRepo(init gateway.RepoInit) *domain.Repo {
	return &domain.Repo{
		FullName:    init.FullName,
		CreatedYear: init.CreatedYear,
		TotalStars:  init.TotalStars,
		NewStars:    m.resolver.Triage(init, m.year),
	}
}

// Username returns the account the session was created for.
func (m *StatsMaker) Username() string { return m.username }

// Year returns the session's target year.
func (m *StatsMaker) Year() int { return m.year }

// ExternalRepoNames lists the externally-contributed repos in the order
// the loader supplied them, for caller-side selection.
func (m *StatsMaker) ExternalRepoNames() []string {
	names := make([]string, 0, len(m.external))
	for _, repo := range m.external {
		names = append(names, repo.FullName)
	}
	return names
}

// Repos returns a snapshot of all repository records, own repos first.
// Records still unresolved mid-stream come back with an unresolved count.
func (m *StatsMaker) Repos() []domain.Repo {
	out := make([]domain.Repo, 0, len(m.own)+len(m.external))
	for _, repo := range m.own {
		out = append(out, *repo)
	}
	for _, repo := range m.external {
		out = append(out, *repo)
	}
	return out
}

// Update is one step of a resolution stream: an immutable summary
// snapshot, the overall progress in [0, 1], and a human-readable message
// naming the repository resolved next (or "Finished").
type Update struct {
	Summary  domain.Summary
	Progress float64
	Message  string
}

// Stream starts a resolution pass over the repositories that are still
// unresolved: own repos first, then the selected external repos, in loader
// order. The selection is fixed for the lifetime of the returned stream.
// A later Stream call over the same session recomputes from the resolved
// state and performs no redundant network calls.
func (m *StatsMaker) Stream(selectedExternal []string) *Stream {
	selected := make(map[string]bool, len(selectedExternal))
	for _, name := range selectedExternal {
		if _, ok := m.extIndex[name]; ok {
			selected[name] = true
		}
	}

	var queue []*domain.Repo
	for _, repo := range m.own {
		if _, ok := repo.NewStars.Known(); !ok {
			queue = append(queue, repo)
		}
	}
	for _, repo := range m.external {
		if _, ok := repo.NewStars.Known(); selected[repo.FullName] && !ok {
			queue = append(queue, repo)
		}
	}
	return &Stream{maker: m, selected: selected, queue: queue}
}

// Stream is a pull iterator over resolution steps. Each Next call performs
// at most one repository resolution (the only blocking work) and yields a
// consistent snapshot of the cumulative state.
type Stream struct {
	maker    *StatsMaker
	selected map[string]bool
	queue    []*domain.Repo
	resolved int
	started  bool
	failed   bool
}

// Next returns the next update. ok is false once the stream is exhausted
// or after a failure. Errors abort the remainder of the stream; state
// resolved so far stays valid, so a fresh Stream call resumes without
// repeating work.
func (s *Stream) Next(ctx context.Context) (update Update, ok bool, err error) {
	if s.failed {
		return Update{}, false, nil
	}

	if !s.started {
		s.started = true
		progress := 1.0
		if len(s.queue) > 0 {
			progress = 0.2
		}
		return s.update(progress, 0), true, nil
	}

	if s.resolved >= len(s.queue) {
		return Update{}, false, nil
	}

	repo := s.queue[s.resolved]
	stars, err := s.maker.resolver.Resolve(ctx, repo, s.maker.year)
	if err != nil {
		s.failed = true
		return Update{}, false, fmt.Errorf("failed to resolve %s: %w", repo.FullName, err)
	}
	repo.SetNewStars(stars)
	s.resolved++

	progress := math.Min(1.0, 0.2+0.8*float64(s.resolved)/float64(len(s.queue)))
	return s.update(progress, s.resolved), true, nil
}

func (s *Stream) update(progress float64, next int) Update {
	return Update{
		Summary:  s.maker.summary(s.selected),
		Progress: progress,
		Message:  s.message(next),
	}
}

func (s *Stream) message(next int) string {
	if next < len(s.queue) {
		return "Parsing repo: " + s.queue[next].FullName
	}
	return "Finished"
}

// summary recomputes the aggregate figures over the active set: own repos
// plus selected external repos, resolved values only. Unresolved repos
// contribute nothing until their value lands.
func (m *StatsMaker) summary(selected map[string]bool) domain.Summary {
	sum := domain.Summary{
		Username:           m.username,
		Year:               m.year,
		IsOrg:              m.isOrg,
		Contributions:      m.contributions,
		ReposContributedTo: m.reposContributedTo,
	}

	var hottest *domain.HottestRepo
	consider := func(repo *domain.Repo) {
		stars, known := repo.NewStars.Known()
		if !known {
			return
		}
		sum.NewStars += stars
		// Strict comparison keeps the first-seen repo on ties, and makes
		// the first active repo the fallback when every count is zero.
		if hottest == nil || stars > hottest.NewStars {
			hottest = &domain.HottestRepo{FullName: repo.FullName, NewStars: stars}
		}
	}
	for _, repo := range m.own {
		consider(repo)
	}
	for _, repo := range m.external {
		if selected[repo.FullName] {
			consider(repo)
		}
	}
	sum.Hottest = hottest
	return sum
}
