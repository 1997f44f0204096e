package reporting

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// startOfISOWeek returns the Monday of t's ISO week.
func startOfISOWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// monthsSpanned counts calendar months touched by [a, b], inclusive.
func monthsSpanned(a, b time.Time) int {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return (by-ay)*12 + int(bm-am) + 1
}

// period is the calendar unit a bucket key stands for.
type period struct {
	key   string
	start time.Time
	end   time.Time
}

// PeriodKey derives the grouping key of t, already converted to the report
// location: YYYY-MM-DD, YYYY-Www (ISO) or YYYY-MM.
func PeriodKey(t time.Time, g GroupBy) string {
	return periodOf(t, g).key
}

func periodOf(t time.Time, g GroupBy) period {
	switch g {
	case GroupByWeek:
		year, week := t.ISOWeek()
		start := startOfISOWeek(t)
		return period{
			key:   fmt.Sprintf("%04d-W%02d", year, week),
			start: start,
			end:   endOfDay(start.AddDate(0, 0, 6)),
		}
	case GroupByMonth:
		start := startOfMonth(t)
		return period{
			key:   start.Format("2006-01"),
			start: start,
			end:   endOfDay(start.AddDate(0, 1, -1)),
		}
	default:
		return period{
			key:   t.Format(dateLayout),
			start: startOfDay(t),
			end:   endOfDay(t),
		}
	}
}

// clamp restricts the period to the requested range for display.
func (p period) clamp(r DateRange) (time.Time, time.Time) {
	from, to := p.start, p.end
	if from.Before(r.From) {
		from = r.From
	}
	if end := r.End(); to.After(end) {
		to = end
	}
	return from, to
}
