package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policlinic/clinic/internal/platform/db"
	"github.com/policlinic/clinic/internal/platform/reporting"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCanceled  = errors.New("appointment is already canceled")
	ErrNotCancelable    = errors.New("appointment can no longer be canceled")
	ErrMissingName      = errors.New("name is required")
	ErrMissingReference = errors.New("professional_id and patient_id are required")
)

// TxFunc runs fn atomically.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// PoolTx runs fn in a database transaction on pool.
func PoolTx(pool *pgxpool.Pool) TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
}

func noTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	professionals ProfessionalRepository
	patients      PatientRepository
	appointments  AppointmentRepository
	cancellations CancellationRepository
	inTx          TxFunc
	invalidator   ReportInvalidator
}

// ReportInvalidator is told when records feeding the reports change.
type ReportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// SetReportInvalidator registers inv to be called after every committed
// appointment or cancellation write.
func (s *Service) SetReportInvalidator(inv ReportInvalidator) {
	s.invalidator = inv
}

// recordsChanged is skipped inside an enclosing transaction; the code that
// owns the transaction calls it after commit.
func (s *Service) recordsChanged(ctx context.Context) {
	if db.TxFromContext(ctx) != nil {
		return
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateReports(ctx)
	}
}

func NewService(prof ProfessionalRepository, pat PatientRepository, appt AppointmentRepository, canc CancellationRepository, tx TxFunc) *Service {
	if tx == nil {
		tx = noTx
	}
	return &Service{professionals: prof, patients: pat, appointments: appt, cancellations: canc, inTx: tx}
}

// -- Professionals & patients --

func (s *Service) CreateProfessional(ctx context.Context, p *Professional) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrMissingName
	}
	return s.professionals.Create(ctx, p)
}

func (s *Service) ListProfessionals(ctx context.Context) ([]*Professional, error) {
	return s.professionals.List(ctx)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrMissingName
	}
	return s.patients.Create(ctx, p)
}

// -- Appointments --

func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ProfessionalID == 0 || a.PatientID == 0 {
		return ErrMissingReference
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if a.Status == "" {
		a.Status = string(reporting.StatusScheduled)
	}
	status, err := reporting.ParseStatus(a.Status)
	if err != nil {
		return err
	}
	a.Status = string(status)
	if err := s.appointments.Create(ctx, a); err != nil {
		return err
	}
	s.recordsChanged(ctx)
	return nil
}

// CancelRequest describes a cancellation to record.
type CancelRequest struct {
	AppointmentID  int64
	RequestedBy    reporting.Requester
	CanceledByUser *int64
	Reason         *string
	At             time.Time

	// ProfessionalScope restricts the cancellation to that professional's agenda.
	ProfessionalScope *int64
}

// CancelAppointment marks the appointment CANCELED and records who asked for
// it. Attended and no-show appointments cannot be canceled.
func (s *Service) CancelAppointment(ctx context.Context, req CancelRequest) (*Cancellation, error) {
	if req.At.IsZero() {
		req.At = time.Now()
	}
	if req.RequestedBy == "" {
		req.RequestedBy = reporting.RequesterPatient
	}
	requester := string(req.RequestedBy)
	if _, err := reporting.ParseRequester(&requester); err != nil {
		return nil, err
	}
	if req.Reason != nil {
		reason := strings.TrimSpace(*req.Reason)
		if reason == "" {
			req.Reason = nil
		} else {
			req.Reason = &reason
		}
	}

	var out *Cancellation
	err := s.inTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetByID(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		if req.ProfessionalScope != nil && *req.ProfessionalScope != appt.ProfessionalID {
			return fmt.Errorf("appointment %d: %w", appt.ID, ErrNotFound)
		}
		switch reporting.Status(appt.Status) {
		case reporting.StatusCanceled:
			return ErrAlreadyCanceled
		case reporting.StatusAttended, reporting.StatusNoShow:
			return fmt.Errorf("%w: status %s", ErrNotCancelable, appt.Status)
		}

		if err := s.appointments.UpdateStatus(ctx, appt.ID, string(reporting.StatusCanceled)); err != nil {
			return fmt.Errorf("update appointment status: %w", err)
		}
		c := &Cancellation{
			CanceledAt:     req.At,
			RequestedBy:    &requester,
			CanceledByUser: req.CanceledByUser,
			AppointmentID:  appt.ID,
			Reason:         req.Reason,
			ProfessionalID: appt.ProfessionalID,
			Specialty:      appt.Specialty,
		}
		if err := s.cancellations.Create(ctx, c); err != nil {
			return fmt.Errorf("record cancellation: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordsChanged(ctx)
	return out, nil
}

// -- reporting.Source --

// ListAppointments loads appointment records for a report.
func (s *Service) ListAppointments(ctx context.Context, q reporting.FetchQuery) ([]reporting.AppointmentRecord, error) {
	rows, err := s.appointments.ListBetween(ctx, q)
	if err != nil {
		return nil, err
	}
	records := make([]reporting.AppointmentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListCancellations loads cancellation records for a report.
func (s *Service) ListCancellations(ctx context.Context, q reporting.FetchQuery) ([]reporting.CancellationRecord, error) {
	rows, err := s.cancellations.ListBetween(ctx, q)
	if err != nil {
		return nil, err
	}
	records := make([]reporting.CancellationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.ToRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

var _ reporting.Source = (*Service)(nil)
