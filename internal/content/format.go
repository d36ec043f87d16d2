package content

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration as "x days, x h, x min, x s", dropping
// leading units that are zero. Negative durations render as "0 s".
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	mins := total % 3600 / 60
	secs := total % 60

	out := fmt.Sprintf("%d s", secs)
	if mins > 0 || hours > 0 || days > 0 {
		out = fmt.Sprintf("%d min, %s", mins, out)
	}
	if hours > 0 || days > 0 {
		out = fmt.Sprintf("%d h, %s", hours, out)
	}
	if days > 0 {
		out = fmt.Sprintf("%d days, %s", days, out)
	}
	return out
}
