package domain

import (
	"fmt"
	"math"
	"time"
)

// TimeAgo renders t relative to now the way the feed labels posts.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)

	const (
		day  = 24 * time.Hour
		week = 7 * day
	)

	switch {
	case diff < time.Minute:
		n := max(1, int(math.Round(diff.Seconds())))
		return plural(n, "second")
	case diff < time.Hour:
		return plural(int(math.Round(diff.Minutes())), "minute")
	case diff < day:
		return plural(int(math.Round(diff.Hours())), "hour")
	}

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfYesterday := startOfToday.Add(-day)
	if !t.Before(startOfYesterday) && t.Before(startOfToday) {
		return "yesterday"
	}

	if diff < week {
		return t.Weekday().String()
	}
	return plural(int(math.Round(float64(diff)/float64(week))), "week")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
