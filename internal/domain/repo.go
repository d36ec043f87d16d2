// Package domain contains the core data structures and domain logic for the application.
package domain

import "fmt"

// StarCount is the tri-state new-star figure of a repository: unresolved
// until a value is computed, then fixed for the lifetime of the session.
// The zero value is unresolved.
type StarCount struct {
	resolved bool
	stars    int
}

// ResolvedStars returns a StarCount holding a final value.
func ResolvedStars(n int) StarCount {
	return StarCount{resolved: true, stars: n}
}

// Known reports the resolved value, comma-ok style. Callers that forget to
// check ok silently read 0, so always branch on it.
func (c StarCount) Known() (int, bool) {
	return c.stars, c.resolved
}

// Repo is a single repository tracked by a resolution session.
type Repo struct {
	FullName    string `json:"full_name"`
	CreatedYear int    `json:"created_year"`
	TotalStars  int    `json:"total_stars"`

	// NewStars is written exactly once, by the stats maker driving the
	// session. Readers must tolerate it being unresolved mid-stream.
	NewStars StarCount `json:"-"`
}

// SetNewStars stores the final new-star value for the repo. Writing a
// resolved repo twice is a programming error and panics.
func (r *Repo) SetNewStars(n int) {
	if _, ok := r.NewStars.Known(); ok {
		panic(fmt.Sprintf("domain: repo %s already resolved", r.FullName))
	}
	r.NewStars = ResolvedStars(n)
}
