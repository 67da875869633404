package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/drowselabs/drowse/internal/sleep"
)

const timeLayout = "Mon Jan 02 15:04"

// FormatTime renders a timestamp the way drowse output expects it.
func FormatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

// FormatDuration renders a duration as hours and minutes, "7h35m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// QualityStars renders a 0..5 score as stars, or a dash when unrated.
func QualityStars(q int) string {
	if !sleep.ValidQuality(q) {
		return "-"
	}
	return strings.Repeat("★", q) + strings.Repeat("☆", sleep.QualityMax-q)
}

func renderQuality(q int) string {
	stars := QualityStars(q)
	switch {
	case q >= 4:
		return passStyle.Render(stars)
	case q >= 2:
		return warnStyle.Render(stars)
	case sleep.ValidQuality(q):
		return failStyle.Render(stars)
	default:
		return mutedStyle.Render(stars)
	}
}

// History renders sessions as a table, newest first. Open sessions show
// elapsed time against now.
func History(sessions []*sleep.Session, now time.Time) string {
	if len(sessions) == 0 {
		return RenderMuted("No sleep sessions recorded") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(RenderMuted(fmt.Sprintf("%-5s %-17s %-17s %-9s %s",
		"ID", "BEDTIME", "WAKE", "SLEPT", "QUALITY")) + "\n")

	for _, s := range sessions {
		wake := FormatTime(s.End)
		slept := FormatDuration(s.Duration())
		if s.Open() {
			wake = accentStyle.Render("(asleep)")
			slept = FormatDuration(now.Sub(s.Start))
		}
		sb.WriteString(fmt.Sprintf("%-5d %-17s %-17s %-9s %s\n",
			s.ID, FormatTime(s.Start), wake, slept, renderQuality(s.Quality)))
	}
	return sb.String()
}

// StatsView renders aggregate statistics.
func StatsView(st sleep.Stats) string {
	if st.Nights == 0 {
		return RenderMuted("No completed sessions to summarize") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(RenderTitle("Sleep Stats") + "\n\n")
	sb.WriteString(fmt.Sprintf("%s %d\n", pad("Nights:"), st.Nights))
	sb.WriteString(fmt.Sprintf("%s %d\n", pad("Rated:"), st.Rated))
	sb.WriteString(fmt.Sprintf("%s %s\n", pad("Avg sleep:"), FormatDuration(st.AvgSleep)))
	if st.Rated > 0 {
		sb.WriteString(fmt.Sprintf("%s %.1f\n", pad("Avg quality:"), st.AvgQuality))
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", pad("Longest:"), FormatDuration(st.Longest)))
	sb.WriteString(fmt.Sprintf("%s %s\n", pad("Shortest:"), FormatDuration(st.Shortest)))

	if st.Rated > 0 {
		sb.WriteString("\n" + RenderMuted("Quality distribution:") + "\n")
		for q := sleep.QualityMax; q >= sleep.QualityMin; q-- {
			n := st.ByQuality[q]
			if n == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %d %s %s %d\n",
				q, renderQuality(q), strings.Repeat("█", n), n))
		}
	}
	return sb.String()
}

func pad(label string) string {
	return RenderMuted(fmt.Sprintf("%-12s", label))
}
