package reporting

import (
	"sort"
	"time"
)

// RangeInfo echoes the requested range as calendar dates.
type RangeInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Filters echoes the dimension filters that were applied.
type Filters struct {
	GroupBy        GroupBy `json:"groupBy"`
	Specialty      *string `json:"especialidad"`
	ProfessionalID *int64  `json:"profesionalId"`
}

// BucketInfo identifies one bucket of a series. From and To are the display
// range, already clamped to the requested range.
type BucketInfo struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Peak is the bucket with the highest total.
type Peak struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Total int    `json:"total"`
}

// group collects the items of one calendar key.
type group[T any] struct {
	period
	info  BucketInfo
	items []T
}

// groupByPeriod partitions the items that fall inside r into calendar buckets
// ordered by their canonical start.
func groupByPeriod[T any](items []T, timestamp func(T) time.Time, g GroupBy, r DateRange, loc *time.Location) []*group[T] {
	byKey := make(map[string]*group[T])
	for _, it := range items {
		ts := timestamp(it).In(loc)
		if !r.Contains(ts, loc) {
			continue
		}
		p := periodOf(ts, g)
		grp, ok := byKey[p.key]
		if !ok {
			grp = &group[T]{period: p}
			byKey[p.key] = grp
		}
		grp.items = append(grp.items, it)
	}

	groups := make([]*group[T], 0, len(byKey))
	for _, grp := range byKey {
		from, to := grp.clamp(r)
		label, tooltip := bucketLabels(g, grp.start, from, to)
		grp.info = BucketInfo{
			Key:     grp.key,
			Label:   label,
			Tooltip: tooltip,
			From:    from.Format(dateLayout),
			To:      to.Format(dateLayout),
		}
		groups = append(groups, grp)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].start.Before(groups[j].start)
	})
	return groups
}

// countIn counts the items inside r.
func countIn[T any](items []T, timestamp func(T) time.Time, r DateRange, loc *time.Location) int {
	n := 0
	for _, it := range items {
		if r.Contains(timestamp(it), loc) {
			n++
		}
	}
	return n
}

// peakOf scans buckets chronologically and keeps the first strictly greater total.
func peakOf(infos []BucketInfo, totals []int) *Peak {
	var peak *Peak
	for i, info := range infos {
		if peak == nil || totals[i] > peak.Total {
			peak = &Peak{Key: info.Key, Label: info.Label, Total: totals[i]}
		}
	}
	return peak
}

func averagePerBucket(total, buckets int) float64 {
	if buckets == 0 {
		return 0
	}
	return round2(float64(total) / float64(buckets))
}

// rollingMonthlyAverage divides the records in the trailing window by the
// number of calendar months it spans.
func rollingMonthlyAverage[T any](items []T, timestamp func(T) time.Time, p Params) float64 {
	w := p.RollingWindow()
	months := monthsSpanned(w.From, w.To)
	if months <= 0 {
		return 0
	}
	return round2(float64(countIn(items, timestamp, w, p.location())) / float64(months))
}

func rangeInfo(r DateRange) RangeInfo {
	return RangeInfo{From: r.From.Format(dateLayout), To: r.To.Format(dateLayout)}
}

func filtersOf(p Params) Filters {
	return Filters{GroupBy: p.GroupBy, Specialty: p.Specialty, ProfessionalID: p.ProfessionalID}
}
