package reporting

import "math"

// Comparison contrasts the report total with the preceding period of equal length.
type Comparison struct {
	PreviousTotal int     `json:"previousTotal"`
	Difference    int     `json:"difference"`
	PercentChange float64 `json:"percentChange"`
}

// PercentChange is 0 when both totals are 0 and 100 when only the previous
// total is 0.
func PercentChange(previous, current int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round2(float64(current-previous) / float64(previous) * 100)
}

// Compare builds the comparison block for two totals.
func Compare(previous, current int) Comparison {
	return Comparison{
		PreviousTotal: previous,
		Difference:    current - previous,
		PercentChange: PercentChange(previous, current),
	}
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
