// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/jrieke/year-on-github/internal/domain"
	"github.com/jrieke/year-on-github/internal/gateway"
)

// StarPager is the narrow slice of the gateway the year-boundary search
// needs: whole pages of the stargazer timeline, oldest first.
type StarPager interface {
	FetchStarPage(ctx context.Context, fullName string, page int) ([]gateway.StarEvent, error)
}

// StarSearch counts the stars a repository gained in a target year without
// walking the whole timeline. It relies on the timeline being paginated in
// ascending starred_at order with no gaps between pages, and fetches only
// whole pages: a single-page count where possible, otherwise a binary
// search over page indices for the page where entries cross into the
// target year.
type StarSearch struct {
	pager  StarPager
	logger *log.Logger
}

// NewStarSearch creates a new StarSearch instance.
func NewStarSearch(pager StarPager, logger *log.Logger) *StarSearch {
	return &StarSearch{pager: pager, logger: logger}
}

// NewStarsInYear returns the number of stars of fullName gained in year.
// totalStars is the point-in-time total from the repo listing; it fixes the
// page count, so the search never probes beyond it.
func (s *StarSearch) NewStarsInYear(ctx context.Context, fullName string, totalStars, year int) (int, error) {
	totalPages := (totalStars + gateway.StarPageSize - 1) / gateway.StarPageSize
	if totalPages < 1 {
		totalPages = 1
	}

	first, err := s.fetchPage(ctx, fullName, 1)
	if err != nil {
		return 0, err
	}
	matches := countYear(first, year)

	if totalPages == 1 {
		return matches, nil
	}

	if matches > 0 && matches < len(first) {
		// The year begins within page 1, so every later page holds stars
		// from the target year onward: count the last page and credit the
		// full pages in between without fetching them.
		s.logger.Printf("  %s: year break on first page", fullName)
		last, err := s.fetchPage(ctx, fullName, totalPages)
		if err != nil {
			return 0, err
		}
		matches += countYear(last, year)
		if totalPages > 2 {
			matches += (totalPages - 2) * gateway.StarPageSize
		}
		return matches, nil
	}

	return s.searchBoundary(ctx, fullName, totalPages, year)
}

// searchBoundary binary-searches pages [2, totalPages] for the page where
// the timeline crosses into the target year. Page 1 was already inspected
// by the caller.
func (s *StarSearch) searchBoundary(ctx context.Context, fullName string, totalPages, year int) (int, error) {
	fromPage, toPage := 2, totalPages
	stalled := 0
	for fromPage <= toPage {
		page := (fromPage + toPage) / 2
		s.logger.Printf("  %s: searching pages [%d, %d], looking at %d", fullName, fromPage, toPage, page)

		entries, err := s.fetchPage(ctx, fullName, page)
		if err != nil {
			return 0, err
		}
		if len(entries) == 0 {
			// The timeline ended early; the target year is not in it.
			return 0, nil
		}
		oldestYear := entries[0].StarredAt.Year()
		newestYear := entries[len(entries)-1].StarredAt.Year()

		switch {
		case fromPage == toPage || (oldestYear < year && newestYear >= year):
			return s.countFromBoundary(ctx, fullName, page, totalPages, year, entries, newestYear)
		case oldestYear < year && newestYear < year:
			// Whole page predates the target year; move toward newer
			// (higher-numbered) pages.
			fromPage = shrink(&stalled, fromPage, min(totalPages, page+1))
		case oldestYear >= year && newestYear >= year:
			toPage = shrink(&stalled, toPage, max(2, page-1))
		default:
			return 0, fmt.Errorf("page %d of %s runs from year %d back to %d: %w",
				page, fullName, oldestYear, newestYear, domain.ErrProtocolViolation)
		}
		if stalled >= 3 {
			return 0, fmt.Errorf("search window [%d, %d] on %s stopped shrinking: %w",
				fromPage, toPage, fullName, domain.ErrProtocolViolation)
		}
	}
	// Window exhausted without a qualifying page: no boundary, no matches.
	return 0, nil
}

// countFromBoundary composes the final count once the boundary page is
// known: its own matches, one fetch of the last page, and StarPageSize
// for every untouched full page in between.
func (s *StarSearch) countFromBoundary(ctx context.Context, fullName string, page, totalPages, year int, entries []gateway.StarEvent, newestYear int) (int, error) {
	matches := countYear(entries, year)
	if matches == 0 && newestYear > year {
		// The window collapsed onto a page that already postdates the
		// target year: the year never appears in the timeline.
		return 0, nil
	}
	if page < totalPages {
		last, err := s.fetchPage(ctx, fullName, totalPages)
		if err != nil {
			return 0, err
		}
		matches += countYear(last, year)
	}
	if page < totalPages-1 {
		matches += (totalPages - 1 - page) * gateway.StarPageSize
	}
	s.logger.Printf("  %s: boundary on page %d, %d new stars", fullName, page, matches)
	return matches, nil
}

// fetchPage fetches one page and verifies the ascending-order contract.
func (s *StarSearch) fetchPage(ctx context.Context, fullName string, page int) ([]gateway.StarEvent, error) {
	entries, err := s.pager.FetchStarPage(ctx, fullName, page)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].StarredAt.Before(entries[i-1].StarredAt) {
			return nil, fmt.Errorf("star page %d of %s is not ordered by starred_at: %w",
				page, fullName, domain.ErrProtocolViolation)
		}
	}
	return entries, nil
}

// shrink advances a window bound and counts probes that fail to move it.
func shrink(stalled *int, old, next int) int {
	if next == old {
		*stalled++
	} else {
		*stalled = 0
	}
	return next
}

func countYear(entries []gateway.StarEvent, year int) int {
	n := 0
	for _, entry := range entries {
		if entry.StarredAt.Year() == year {
			n++
		}
	}
	return n
}
