package reporting

import (
	"testing"
	"time"
)

func cancel(id int64, ts time.Time, by Requester, prof int64, reason *string) CancellationRecord {
	return CancellationRecord{ID: id, Timestamp: ts, RequestedBy: by, AppointmentID: id + 100, ProfessionalID: prof, Reason: reason}
}

func TestBuildCancellationReport(t *testing.T) {
	recs := []CancellationRecord{
		cancel(1, at("2024-03-01", 9), RequesterPatient, 1, strPtr("Viaje")),
		cancel(2, at("2024-03-01", 10), RequesterProfessional, 1, strPtr("Congreso")),
		cancel(3, at("2024-03-02", 11), "", 2, nil),
		cancel(4, at("2024-03-05", 12), RequesterPatient, 2, strPtr("Viaje")),
		cancel(5, at("2024-04-01", 12), RequesterPatient, 2, nil),
	}
	p := Params{From: date("2024-03-01"), To: date("2024-03-10"), GroupBy: GroupByWeek}

	report, err := BuildCancellationReport(recs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.Total != 4 {
		t.Errorf("expected 4 cancellations in range, got %d", report.Summary.Total)
	}
	if len(report.Series) != 2 {
		t.Fatalf("expected 2 weekly buckets, got %d", len(report.Series))
	}
	w1 := report.Series[0]
	if w1.Total != 3 || w1.ByPatient != 2 || w1.ByProfessional != 1 {
		t.Errorf("unexpected first bucket %+v", w1)
	}
	if report.Summary.Peak == nil || report.Summary.Peak.Key != w1.Key {
		t.Errorf("expected peak on first bucket, got %+v", report.Summary.Peak)
	}
	if report.Summary.AveragePerGroup != 2 {
		t.Errorf("expected 2 per bucket, got %v", report.Summary.AveragePerGroup)
	}

	origin := report.ByRequester
	if len(origin) != 2 || origin[0].Requester != RequesterPatient || origin[0].Count != 3 || origin[0].Percentage != 75 {
		t.Errorf("unexpected requester breakdown %+v", origin)
	}

	if len(report.Reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %+v", report.Reasons)
	}
	if report.Reasons[0] != (ReasonCount{Reason: "Viaje", Count: 2}) {
		t.Errorf("unexpected top reason %+v", report.Reasons[0])
	}
}

func TestBuildCancellationReport_EmptyKeepsAllRequesters(t *testing.T) {
	p := Params{From: date("2024-03-01"), To: date("2024-03-10"), GroupBy: GroupByDay}
	report, err := BuildCancellationReport(nil, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Series) != 0 || report.Series == nil {
		t.Errorf("expected empty non-nil series, got %#v", report.Series)
	}
	if len(report.ByRequester) != len(Requesters) {
		t.Fatalf("expected every requester, got %+v", report.ByRequester)
	}
	for i, rc := range report.ByRequester {
		if rc.Requester != Requesters[i] || rc.Count != 0 || rc.Percentage != 0 {
			t.Errorf("expected zero row for %s in enumeration order, got %+v", Requesters[i], rc)
		}
	}
}

func TestRequesterBreakdown_SortedDescending(t *testing.T) {
	recs := []CancellationRecord{
		cancel(1, at("2024-03-01", 9), RequesterProfessional, 1, nil),
		cancel(2, at("2024-03-01", 9), RequesterProfessional, 1, nil),
		cancel(3, at("2024-03-01", 9), RequesterPatient, 1, nil),
	}
	out := requesterBreakdown(recs)
	if out[0].Requester != RequesterProfessional || out[0].Count != 2 {
		t.Errorf("expected PROFESSIONAL first, got %+v", out)
	}
	if out[0].Percentage != 66.67 || out[1].Percentage != 33.33 {
		t.Errorf("unexpected percentages %+v", out)
	}
}

func TestBuildCancellationReport_UnknownRequesterCountsAsPatient(t *testing.T) {
	recs := []CancellationRecord{
		cancel(1, at("2024-03-01", 9), "RECEPTION", 1, nil),
		cancel(2, at("2024-03-01", 10), RequesterProfessional, 1, nil),
		cancel(3, at("2024-03-01", 11), "", 1, nil),
		cancel(4, at("2024-03-01", 12), RequesterPatient, 1, nil),
	}
	p := Params{From: date("2024-03-01"), To: date("2024-03-01"), GroupBy: GroupByDay}
	report, err := BuildCancellationReport(recs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := report.Series[0]
	if b.ByPatient != 3 || b.ByProfessional != 1 {
		t.Errorf("expected 3 patient and 1 professional, got %+v", b)
	}
	var count int
	var pct float64
	for _, rc := range report.ByRequester {
		count += rc.Count
		pct += rc.Percentage
		if rc.Requester == RequesterPatient && (rc.Count != 3 || rc.Percentage != 75) {
			t.Errorf("unexpected patient row %+v", rc)
		}
	}
	if count != 4 || pct != 100 {
		t.Errorf("expected counts to sum to 4 and percentages to 100, got %d / %v", count, pct)
	}
}

func TestBuildCancellationReport_PeakTieKeepsEarliest(t *testing.T) {
	recs := []CancellationRecord{
		cancel(1, at("2024-03-01", 9), RequesterPatient, 1, nil),
		cancel(2, at("2024-03-01", 10), RequesterPatient, 1, nil),
		cancel(3, at("2024-03-02", 9), RequesterPatient, 1, nil),
		cancel(4, at("2024-03-02", 10), RequesterProfessional, 1, nil),
	}
	p := Params{From: date("2024-03-01"), To: date("2024-03-02"), GroupBy: GroupByDay}
	report, err := BuildCancellationReport(recs, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.Peak == nil || report.Summary.Peak.Key != "2024-03-01" || report.Summary.Peak.Total != 2 {
		t.Errorf("expected peak on 2024-03-01, got %+v", report.Summary.Peak)
	}
}

func TestReasonBreakdown_Limit(t *testing.T) {
	var recs []CancellationRecord
	reasons := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, r := range reasons {
		for j := 0; j <= i; j++ {
			recs = append(recs, cancel(int64(i*10+j), at("2024-03-01", 9), RequesterPatient, 1, strPtr(r)))
		}
	}
	out := reasonBreakdown(recs, DefaultReasonLimit)
	if len(out) != DefaultReasonLimit {
		t.Fatalf("expected %d reasons, got %d", DefaultReasonLimit, len(out))
	}
	if out[0].Reason != "g" || out[0].Count != 7 {
		t.Errorf("expected most frequent reason first, got %+v", out[0])
	}
}

func TestParseRequester(t *testing.T) {
	if r, err := ParseRequester(nil); err != nil || r != RequesterPatient {
		t.Errorf("expected nil to default to PATIENT, got %s, %v", r, err)
	}
	if r, err := ParseRequester(strPtr("professional")); err != nil || r != RequesterProfessional {
		t.Errorf("expected PROFESSIONAL, got %s, %v", r, err)
	}
	if _, err := ParseRequester(strPtr("robot")); err == nil {
		t.Error("expected error for unknown requester")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("no_show"); err != nil || s != StatusNoShow {
		t.Errorf("expected NO_SHOW, got %s, %v", s, err)
	}
	if _, err := ParseStatus("LOST"); err == nil {
		t.Error("expected error for unknown status")
	}
}
