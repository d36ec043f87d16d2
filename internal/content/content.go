// Package content renders user-facing text from computed stats.
package content

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jrieke/year-on-github/internal/domain"
)

const userTemplate = `My year on GitHub {{.Year}} 🧑‍💻✨ {{.Username}}

📬 Commits/Issues/PRs: {{.Contributions}}
🏝️ Repos contributed to: {{.ReposContributedTo}}
⭐ New stars: {{.NewStars}}
🔥 Hottest repo: {{.HottestLine}}
`

const orgTemplate = `Our year on GitHub {{.Year}} 🧑‍💻✨ {{.Username}}

⭐ New stars: {{.NewStars}}
🔥 Hottest repo: {{.HottestLine}}
`

var (
	userTpl = template.Must(template.New("user").Parse(userTemplate))
	orgTpl  = template.Must(template.New("org").Parse(orgTemplate))
)

type tweetData struct {
	domain.Summary
	HottestLine string
}

// Tweet renders the shareable year-in-review message for a summary. The
// organization variant omits the per-user contribution lines.
func Tweet(summary domain.Summary) (string, error) {
	tpl := userTpl
	if summary.IsOrg {
		tpl = orgTpl
	}
	data := tweetData{Summary: summary, HottestLine: hottestLine(summary)}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render tweet: %w", err)
	}
	return b.String(), nil
}

func hottestLine(summary domain.Summary) string {
	if summary.Hottest == nil {
		return "–"
	}
	return fmt.Sprintf("%s (+%d)", summary.Hottest.FullName, summary.Hottest.NewStars)
}
