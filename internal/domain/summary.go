package domain

import "strconv"

// RepoCount is a repository count that may be a lower bound when the
// upstream API truncates its result list.
type RepoCount struct {
	N          int  `json:"n"`
	LowerBound bool `json:"lower_bound,omitempty"`
}

// String renders the count as "42", or ">42" for a truncated result.
func (c RepoCount) String() string {
	if c.LowerBound {
		return ">" + strconv.Itoa(c.N)
	}
	return strconv.Itoa(c.N)
}

// MarshalJSON emits the human-readable form, matching what the templates
// and the final report print.
func (c RepoCount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// HottestRepo identifies the repository with the most new stars.
type HottestRepo struct {
	FullName string `json:"full_name"`
	NewStars int    `json:"new_stars"`
}

// Summary is an immutable snapshot of the session's aggregate figures.
// It is recomputed from scratch after every resolution step, never
// mutated in place.
type Summary struct {
	Username           string    `json:"username"`
	Year               int       `json:"year"`
	IsOrg              bool      `json:"is_org"`
	Contributions      int       `json:"contributions"`
	ReposContributedTo RepoCount `json:"repos_contributed_to"`

	// NewStars sums the resolved values of the active set (own repos plus
	// selected external repos). Unresolved repos contribute nothing.
	NewStars int `json:"new_stars"`

	// Hottest is nil while the active set has no resolved repos.
	Hottest *HottestRepo `json:"hottest,omitempty"`
}
