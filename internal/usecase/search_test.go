package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrieke/year-on-github/internal/domain"
	"github.com/jrieke/year-on-github/internal/gateway"
)

// countingPager serves pages out of an in-memory timeline and counts how
// many pages the search actually fetched.
type countingPager struct {
	timeline []gateway.StarEvent
	fetches  int
	err      error
}

func (p *countingPager) FetchStarPage(_ context.Context, _ string, page int) ([]gateway.StarEvent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.fetches++
	start := (page - 1) * gateway.StarPageSize
	if start >= len(p.timeline) {
		return nil, nil
	}
	end := min(start+gateway.StarPageSize, len(p.timeline))
	return p.timeline[start:end], nil
}

// yearEvents builds n ascending star events within the given year.
func yearEvents(year, n int) []gateway.StarEvent {
	base := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	events := make([]gateway.StarEvent, n)
	for i := range events {
		events[i] = gateway.StarEvent{StarredAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return events
}

func timeline(chunks ...[]gateway.StarEvent) []gateway.StarEvent {
	var out []gateway.StarEvent
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return out
}

func TestStarSearch_NewStarsInYear(t *testing.T) {
	testCases := []struct {
		name        string
		timeline    []gateway.StarEvent
		year        int
		expected    int
		maxFetches  int
		expectError error
	}{
		{
			name:       "single page, mixed years",
			timeline:   timeline(yearEvents(2020, 60), yearEvents(2021, 30)),
			year:       2021,
			expected:   30,
			maxFetches: 1,
		},
		{
			name:       "year break on first page takes the fast path",
			timeline:   timeline(yearEvents(2020, 40), yearEvents(2021, 310)),
			year:       2021,
			expected:   310,
			maxFetches: 2, // first page + last page, no binary search
		},
		{
			name:       "boundary found via binary search",
			timeline:   timeline(yearEvents(2020, 230), yearEvents(2021, 120)),
			year:       2021,
			expected:   120,
			maxFetches: 3, // first page, one probe, last page
		},
		{
			name:       "target year after the whole timeline",
			timeline:   yearEvents(2019, 350),
			year:       2021,
			expected:   0,
			maxFetches: 4,
		},
		{
			name:       "target year before the whole timeline",
			timeline:   yearEvents(2022, 350),
			year:       2021,
			expected:   0,
			maxFetches: 4,
		},
		{
			name:       "empty timeline",
			timeline:   nil,
			year:       2021,
			expected:   0,
			maxFetches: 1,
		},
		{
			name: "unordered page fails fast",
			timeline: []gateway.StarEvent{
				{StarredAt: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
				{StarredAt: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
			year:        2021,
			expectError: domain.ErrProtocolViolation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pager := &countingPager{timeline: tc.timeline}
			search := NewStarSearch(pager, log.New(io.Discard, "", 0))

			got, err := search.NewStarsInYear(context.Background(), "any/repo", len(tc.timeline), tc.year)

			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.expected, countYear(tc.timeline, tc.year), "expectation must match an exhaustive count")
			assert.LessOrEqual(t, pager.fetches, tc.maxFetches)
		})
	}
}

// TestStarSearch_LogarithmicFetches checks the page-fetch bound on a large
// timeline: O(log P) probes plus one fetch each for the first and last page.
func TestStarSearch_LogarithmicFetches(t *testing.T) {
	events := timeline(yearEvents(2019, 1480), yearEvents(2021, 520)) // 20 pages
	pager := &countingPager{timeline: events}
	search := NewStarSearch(pager, log.New(io.Discard, "", 0))

	got, err := search.NewStarsInYear(context.Background(), "any/repo", len(events), 2021)

	require.NoError(t, err)
	assert.Equal(t, 520, got)
	assert.Equal(t, countYear(events, 2021), got)
	// 1 first page + ceil(log2(19)) probes + 1 last page.
	assert.LessOrEqual(t, pager.fetches, 7)
}

func TestStarSearch_FetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("boom")
	pager := &countingPager{timeline: yearEvents(2021, 5), err: fetchErr}
	search := NewStarSearch(pager, log.New(io.Discard, "", 0))

	_, err := search.NewStarsInYear(context.Background(), "any/repo", 5, 2021)

	assert.ErrorIs(t, err, fetchErr)
}
