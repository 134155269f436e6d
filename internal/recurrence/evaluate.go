package recurrence

import (
	"time"

	"github.com/wibowo/kabarin/internal/model"
)

// OccurrenceKey identifies one scheduled firing of a reminder: the
// calendar date it belongs to, formatted as 2006-01-02. It is distinct
// from the reminder's identity and exists to dedup fires.
type OccurrenceKey string

// DateKey returns the occurrence key for the calendar date of t.
func DateKey(t time.Time) OccurrenceKey {
	return OccurrenceKey(t.Format(model.DateFormat))
}

// Evaluate decides whether a schedule fires at now and, if so, which
// occurrence it is. now must already be in the organization timezone;
// matching is at minute granularity, so callers tick at least once per
// minute. Evaluate never looks backwards: a minute that was missed
// (downtime, paused scheduler) is skipped, not caught up.
func Evaluate(s model.Schedule, now time.Time) (bool, OccurrenceKey) {
	if !s.At.Matches(now) {
		return false, ""
	}

	switch s.Kind {
	case model.KindDaily:
		return true, DateKey(now)

	case model.KindWeekly:
		if s.OnDay(now.Weekday()) {
			return true, DateKey(now)
		}

	case model.KindMonthly:
		if now.Day() == dueDayOfMonth(s.Date.Day(), now) {
			return true, DateKey(now)
		}

	case model.KindOnce:
		if sameDate(s.Date, now) {
			return true, DateKey(s.Date)
		}
	}
	return false, ""
}

// dueDayOfMonth clamps a monthly anchor day to the current month, so an
// anchor of 31 fires on the 30th (or 28th/29th) instead of skipping the
// month entirely.
func dueDayOfMonth(anchor int, now time.Time) int {
	if last := daysInMonth(now); anchor > last {
		return last
	}
	return anchor
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
