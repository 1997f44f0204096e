package reporting

import (
	"sort"
	"strings"
)

const (
	// UnspecifiedSpecialty labels appointments whose professional has no specialty.
	UnspecifiedSpecialty = "Sin especificar"
	// UnspecifiedReason labels cancellations recorded without a reason.
	UnspecifiedReason = "Sin motivo"

	DefaultProfessionalLimit = 10
	DefaultReasonLimit       = 5
)

// SpecialtyCount is one row of the attended-by-specialty breakdown.
type SpecialtyCount struct {
	Specialty  string  `json:"especialidad"`
	Count      int     `json:"cantidad"`
	Percentage float64 `json:"porcentaje"`
}

// ProfessionalRank is one row of the professional ranking.
type ProfessionalRank struct {
	ProfessionalID int64   `json:"profesionalId"`
	Total          int     `json:"total"`
	Attended       int     `json:"asistidos"`
	AttendanceRate float64 `json:"tasaAsistencia"`
}

// RequesterCount is one row of the cancellations-by-origin breakdown.
type RequesterCount struct {
	Requester  Requester `json:"origen"`
	Count      int       `json:"cantidad"`
	Percentage float64   `json:"porcentaje"`
}

// ReasonCount is one row of the cancellation reasons breakdown.
type ReasonCount struct {
	Reason string `json:"motivo"`
	Count  int    `json:"cantidad"`
}

// specialtyBreakdown groups attended appointments by specialty, largest first.
func specialtyBreakdown(attended []AppointmentRecord) []SpecialtyCount {
	counts := make(map[string]int)
	for _, a := range attended {
		name := UnspecifiedSpecialty
		if a.Specialty != nil && strings.TrimSpace(*a.Specialty) != "" {
			name = *a.Specialty
		}
		counts[name]++
	}

	out := make([]SpecialtyCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, SpecialtyCount{
			Specialty:  name,
			Count:      n,
			Percentage: round2(ratio(n, len(attended)) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Specialty < out[j].Specialty
	})
	return out
}

// professionalRanking orders professionals by attended appointments.
func professionalRanking(records []AppointmentRecord, limit int) []ProfessionalRank {
	byID := make(map[int64]*ProfessionalRank)
	for _, a := range records {
		r, ok := byID[a.ProfessionalID]
		if !ok {
			r = &ProfessionalRank{ProfessionalID: a.ProfessionalID}
			byID[a.ProfessionalID] = r
		}
		r.Total++
		if a.Status == StatusAttended {
			r.Attended++
		}
	}

	out := make([]ProfessionalRank, 0, len(byID))
	for _, r := range byID {
		r.AttendanceRate = ratio(r.Attended, r.Total)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attended != out[j].Attended {
			return out[i].Attended > out[j].Attended
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ProfessionalID < out[j].ProfessionalID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// requesterBreakdown tallies cancellations by origin. Every known requester is
// present; ties keep enumeration order.
func requesterBreakdown(cancellations []CancellationRecord) []RequesterCount {
	counts := make(map[Requester]int, len(Requesters))
	for _, c := range cancellations {
		counts[c.RequestedBy.orPatient()]++
	}

	out := make([]RequesterCount, 0, len(Requesters))
	for _, req := range Requesters {
		out = append(out, RequesterCount{
			Requester:  req,
			Count:      counts[req],
			Percentage: round2(ratio(counts[req], len(cancellations)) * 100),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// reasonBreakdown returns the most frequent cancellation reasons.
func reasonBreakdown(cancellations []CancellationRecord, limit int) []ReasonCount {
	counts := make(map[string]int)
	for _, c := range cancellations {
		reason := UnspecifiedReason
		if c.Reason != nil && strings.TrimSpace(*c.Reason) != "" {
			reason = strings.TrimSpace(*c.Reason)
		}
		counts[reason]++
	}

	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
