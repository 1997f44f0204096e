package scheduling

import (
	"context"

	"github.com/policlinic/clinic/internal/platform/reporting"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, p *Professional) error
	List(ctx context.Context) ([]*Professional, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	// ListBetween returns appointments scheduled in [q.From, q.To).
	ListBetween(ctx context.Context, q reporting.FetchQuery) ([]*Appointment, error)
}

type CancellationRepository interface {
	Create(ctx context.Context, c *Cancellation) error
	// ListBetween returns cancellations recorded in [q.From, q.To).
	ListBetween(ctx context.Context, q reporting.FetchQuery) ([]*Cancellation, error)
}
