package usecase

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jrieke/year-on-github/internal/gateway"
)

func TestStarResolver_Triage(t *testing.T) {
	resolver := NewStarResolver(NewStarSearch(&countingPager{}, log.New(io.Discard, "", 0)), log.New(io.Discard, "", 0))

	testCases := []struct {
		name          string
		repo          gateway.RepoInit
		year          int
		expectKnown   bool
		expectedStars int
	}{
		{
			name:          "zero stars resolves to zero without a search",
			repo:          gateway.RepoInit{FullName: "a/empty", CreatedYear: 2015, TotalStars: 0},
			year:          2021,
			expectKnown:   true,
			expectedStars: 0,
		},
		{
			name:          "created in the target year keeps all stars",
			repo:          gateway.RepoInit{FullName: "a/fresh", CreatedYear: 2021, TotalStars: 500},
			year:          2021,
			expectKnown:   true,
			expectedStars: 500,
		},
		{
			name:        "older starred repo needs the full search",
			repo:        gateway.RepoInit{FullName: "a/big", CreatedYear: 2019, TotalStars: 350},
			year:        2021,
			expectKnown: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			count := resolver.Triage(tc.repo, tc.year)
			stars, known := count.Known()
			assert.Equal(t, tc.expectKnown, known)
			if tc.expectKnown {
				assert.Equal(t, tc.expectedStars, stars)
			}
		})
	}
}
