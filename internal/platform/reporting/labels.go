package reporting

import (
	"fmt"
	"time"
)

// es-AR calendar names, indexed by time.Month-1 and time.Weekday.
var (
	monthNames = [12]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
	monthAbbr = [12]string{
		"ene", "feb", "mar", "abr", "may", "jun",
		"jul", "ago", "sep", "oct", "nov", "dic",
	}
	weekdayNames = [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	weekdayAbbr  = [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"}
)

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// shortDate renders "15 ene".
func shortDate(t time.Time) string {
	return fmt.Sprintf("%02d %s", t.Day(), monthAbbr[t.Month()-1])
}

// shortDateYear renders "15 ene 2024".
func shortDateYear(t time.Time) string {
	return fmt.Sprintf("%s %d", shortDate(t), t.Year())
}

// rangeText renders "15 ene - 20 ene 2024", or both years when they differ.
func rangeText(from, to time.Time) string {
	if from.Year() == to.Year() {
		return fmt.Sprintf("%s - %s", shortDate(from), shortDateYear(to))
	}
	return fmt.Sprintf("%s - %s", shortDateYear(from), shortDateYear(to))
}

// bucketLabels returns the label and tooltip for a bucket whose display range
// has already been clamped.
func bucketLabels(g GroupBy, canonicalStart, from, to time.Time) (string, string) {
	switch g {
	case GroupByWeek:
		year, week := canonicalStart.ISOWeek()
		head := fmt.Sprintf("Semana %02d - %d", week, year)
		label := fmt.Sprintf("%s (%s - %s)", head, shortDate(from), shortDate(to))
		tooltip := fmt.Sprintf("%s: %s - %s", head, shortDateYear(from), shortDateYear(to))
		return label, tooltip
	case GroupByMonth:
		label := fmt.Sprintf("%s %d", capitalize(monthNames[canonicalStart.Month()-1]), canonicalStart.Year())
		return label, rangeText(from, to)
	default:
		label := fmt.Sprintf("%s %02d/%02d", weekdayAbbr[from.Weekday()], from.Day(), int(from.Month()))
		tooltip := fmt.Sprintf("%s %d de %s de %d", weekdayNames[from.Weekday()], from.Day(), monthNames[from.Month()-1], from.Year())
		return label, tooltip
	}
}
