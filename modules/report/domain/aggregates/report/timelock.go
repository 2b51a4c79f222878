package report

import (
	"time"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/serrors"
)

// Cutoff is the daily editing deadline, wall clock.
type Cutoff struct {
	Hour   int
	Minute int
}

// Locked reports whether a report dated reportDate may still be edited or
// submitted at instant now. Days are compared in UTC. A report for a past
// day is always locked; today's report locks once the clock reaches the
// cutoff; future days are never locked.
func Locked(reportDate, now time.Time, cutoff Cutoff) (bool, serrors.LockReason) {
	day := Day(reportDate)
	today := Day(now)

	switch {
	case day.Before(today):
		return true, serrors.LockPastDay
	case day.After(today):
		return false, ""
	}

	nowMinutes := now.UTC().Hour()*60 + now.UTC().Minute()
	if nowMinutes >= cutoff.Hour*60+cutoff.Minute {
		return true, serrors.LockPastCutoff
	}
	return false, ""
}
