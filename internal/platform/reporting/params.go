package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingRange   = errors.New("from and to are required")
	ErrInvalidRange   = errors.New("from must not be after to")
	ErrInvalidGroupBy = errors.New("groupBy must be one of day, week, month")
)

// DefaultRollingMonths is the trailing window used for the monthly average.
const DefaultRollingMonths = 6

// GroupBy is the bucket granularity of a report series.
type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

// ParseGroupBy accepts day, week or month (case-insensitive).
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupByDay, GroupByWeek, GroupByMonth:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, s)
}

// Valid reports whether g is one of the canonical lowercase values. Input
// from users goes through ParseGroupBy first.
func (g GroupBy) Valid() bool {
	switch g {
	case GroupByDay, GroupByWeek, GroupByMonth:
		return true
	}
	return false
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	return daysBetween(r.From, r.To) + 1
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time, loc *time.Location) bool {
	d := startOfDay(t.In(loc))
	return !d.Before(r.From) && !d.After(r.To)
}

// End returns the last instant of the range.
func (r DateRange) End() time.Time {
	return endOfDay(r.To)
}

// Params describes a single report request.
type Params struct {
	From           time.Time
	To             time.Time
	GroupBy        GroupBy
	Specialty      *string
	ProfessionalID *int64
	Page           int
	PageSize       int
	Location       *time.Location
	RollingMonths  int
}

// Validate checks the request contract before any aggregation happens.
func (p Params) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return ErrMissingRange
	}
	if !p.GroupBy.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGroupBy, p.GroupBy)
	}
	r := p.Range()
	if r.From.After(r.To) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.From.Format(dateLayout), r.To.Format(dateLayout))
	}
	return nil
}

func (p Params) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Params) rollingMonths() int {
	if p.RollingMonths <= 0 {
		return DefaultRollingMonths
	}
	return p.RollingMonths
}

// Range returns the requested days at midnight in the report location. From
// and To are read as calendar dates; their own location is ignored.
func (p Params) Range() DateRange {
	loc := p.location()
	return DateRange{
		From: civilDate(p.From, loc),
		To:   civilDate(p.To, loc),
	}
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// PreviousPeriod is the equally long range ending the day before From.
func (p Params) PreviousPeriod() DateRange {
	r := p.Range()
	n := r.Days()
	to := r.From.AddDate(0, 0, -1)
	return DateRange{From: to.AddDate(0, 0, -(n - 1)), To: to}
}

// RollingWindow is the trailing calendar-month window ending at To.
func (p Params) RollingWindow() DateRange {
	r := p.Range()
	first := startOfMonth(r.To).AddDate(0, -(p.rollingMonths() - 1), 0)
	return DateRange{From: first, To: r.To}
}

// FetchRange covers the report range, the previous period and the rolling
// window. Records outside it are never used.
func (p Params) FetchRange() DateRange {
	r := p.Range()
	from := p.PreviousPeriod().From
	if rw := p.RollingWindow().From; rw.Before(from) {
		from = rw
	}
	return DateRange{From: from, To: r.To}
}

func (p Params) matches(specialty *string, professionalID int64) bool {
	if p.ProfessionalID != nil && *p.ProfessionalID != professionalID {
		return false
	}
	if p.Specialty != nil && *p.Specialty != "" {
		if specialty == nil || !strings.EqualFold(*specialty, *p.Specialty) {
			return false
		}
	}
	return true
}
