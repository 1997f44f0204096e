package scheduling

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/policlinic/clinic/internal/platform/auth"
	"github.com/policlinic/clinic/internal/platform/db"
	"github.com/policlinic/clinic/internal/platform/reporting"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateReports(context.Context) { c.calls++ }

// mapCache is an in-process cache.Cache.
type mapCache struct{ data map[string][]byte }

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.data = map[string][]byte{}
	return nil
}

type openTx struct{ pgx.Tx }

func TestService_InvalidatesReportsOnWrites(t *testing.T) {
	svc, _ := newTestService()
	inv := &countingInvalidator{}
	svc.SetReportInvalidator(inv)
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	a := mustAppointment(t, svc, "SCHEDULED", 1, at)
	if inv.calls != 1 {
		t.Fatalf("expected 1 invalidation after create, got %d", inv.calls)
	}

	if _, err := svc.CancelAppointment(context.Background(), CancelRequest{AppointmentID: a.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.calls != 2 {
		t.Errorf("expected 2 invalidations after cancel, got %d", inv.calls)
	}

	if _, err := svc.CancelAppointment(context.Background(), CancelRequest{AppointmentID: a.ID}); err == nil {
		t.Fatal("expected second cancel to fail")
	}
	if inv.calls != 2 {
		t.Errorf("failed cancel must not invalidate, got %d calls", inv.calls)
	}
}

func TestService_DefersInvalidationInsideTransaction(t *testing.T) {
	svc, _ := newTestService()
	inv := &countingInvalidator{}
	svc.SetReportInvalidator(inv)

	ctx := db.ContextWithTx(context.Background(), openTx{})
	a := &Appointment{ScheduledAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ProfessionalID: 1, PatientID: 1}
	if err := svc.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.calls != 0 {
		t.Errorf("expected no invalidation inside an open transaction, got %d", inv.calls)
	}
}

func TestCancelAppointment_RefreshesCachedReports(t *testing.T) {
	svc, _ := newTestService()
	reports := reporting.NewService(svc, &mapCache{data: map[string][]byte{}}, reporting.ServiceConfig{Location: time.UTC}, zerolog.Nop())
	svc.SetReportInvalidator(reports)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := mustAppointment(t, svc, "SCHEDULED", 1, at)
	mustAppointment(t, svc, "ATTENDED", 1, at.Add(time.Hour))

	caller := auth.Caller{UserID: "u-1", Roles: []string{auth.RoleManager}}
	p := reporting.Params{From: at, To: at, GroupBy: reporting.GroupByDay}

	before, err := reports.AppointmentReport(context.Background(), caller, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if before.Summary.Canceled != 0 {
		t.Fatalf("expected no cancellations yet, got %d", before.Summary.Canceled)
	}
	cancelsBefore, err := reports.CancellationReport(context.Background(), caller, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelsBefore.Summary.Total != 0 {
		t.Fatalf("expected empty cancellation report, got %d", cancelsBefore.Summary.Total)
	}

	if _, err := svc.CancelAppointment(context.Background(), CancelRequest{AppointmentID: a.ID, At: at}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := reports.AppointmentReport(context.Background(), caller, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Summary.Canceled != 1 || after.Summary.Scheduled != 0 {
		t.Errorf("expected the canceled appointment in a fresh report, got %+v", after.Summary)
	}
	cancelsAfter, err := reports.CancellationReport(context.Background(), caller, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelsAfter.Summary.Total != 1 {
		t.Errorf("expected 1 cancellation in a fresh report, got %d", cancelsAfter.Summary.Total)
	}
}
