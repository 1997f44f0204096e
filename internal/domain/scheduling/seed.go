package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"

	"github.com/policlinic/clinic/internal/platform/reporting"
)

var seedSpecialties = []string{
	"Clínica médica",
	"Pediatría",
	"Cardiología",
	"Dermatología",
	"Traumatología",
	"Ginecología",
	"Oftalmología",
	"Psicología",
}

var seedReasons = []string{
	"Viaje",
	"Problemas de salud",
	"Superposición de turnos",
	"Motivos laborales",
	"Congreso médico",
	"Licencia",
	"",
}

// SeedConfig controls how much demo data Seed generates.
type SeedConfig struct {
	Professionals int
	Patients      int
	Appointments  int
	From          time.Time
	To            time.Time
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed uint64
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Professionals int `json:"professionals"`
	Patients      int `json:"patients"`
	Appointments  int `json:"appointments"`
	Cancellations int `json:"cancellations"`
}

// Seeder fills an empty database with fake professionals, patients,
// appointments and cancellations.
type Seeder struct {
	svc    *Service
	logger zerolog.Logger
}

func NewSeeder(svc *Service, logger zerolog.Logger) *Seeder {
	return &Seeder{svc: svc, logger: logger}
}

// Seed writes everything in a single transaction.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) (SeedResult, error) {
	var res SeedResult
	if cfg.Professionals <= 0 || cfg.Patients <= 0 {
		return res, fmt.Errorf("seed needs at least one professional and one patient")
	}
	if !cfg.To.After(cfg.From) {
		return res, fmt.Errorf("seed range is empty: %s - %s", cfg.From.Format(time.DateOnly), cfg.To.Format(time.DateOnly))
	}
	faker := gofakeit.New(cfg.Seed)

	err := s.svc.inTx(ctx, func(ctx context.Context) error {
		profs := make([]*Professional, 0, cfg.Professionals)
		for i := 0; i < cfg.Professionals; i++ {
			p := &Professional{Name: faker.Name()}
			// Leave some professionals without a specialty.
			if faker.Number(1, 10) > 1 {
				spec := faker.RandomString(seedSpecialties)
				p.Specialty = &spec
			}
			if err := s.svc.CreateProfessional(ctx, p); err != nil {
				return fmt.Errorf("create professional: %w", err)
			}
			profs = append(profs, p)
		}
		res.Professionals = len(profs)
		s.logger.Info().Int("count", res.Professionals).Msg("professionals seeded")

		patients := make([]*Patient, 0, cfg.Patients)
		for i := 0; i < cfg.Patients; i++ {
			email := faker.Email()
			p := &Patient{Name: faker.Name(), Email: &email}
			if err := s.svc.CreatePatient(ctx, p); err != nil {
				return fmt.Errorf("create patient: %w", err)
			}
			patients = append(patients, p)
		}
		res.Patients = len(patients)
		s.logger.Info().Int("count", res.Patients).Msg("patients seeded")

		for i := 0; i < cfg.Appointments; i++ {
			prof := profs[faker.Number(0, len(profs)-1)]
			a := &Appointment{
				ScheduledAt:    faker.DateRange(cfg.From, cfg.To).Truncate(15 * time.Minute),
				Status:         string(seedStatus(faker)),
				ProfessionalID: prof.ID,
				PatientID:      patients[faker.Number(0, len(patients)-1)].ID,
				Specialty:      prof.Specialty,
			}
			canceled := a.Status == string(reporting.StatusCanceled)
			if canceled {
				a.Status = string(reporting.StatusScheduled)
			}
			if err := s.svc.CreateAppointment(ctx, a); err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}
			res.Appointments++

			if !canceled {
				continue
			}
			requester := reporting.RequesterPatient
			if faker.Bool() {
				requester = reporting.RequesterProfessional
			}
			reason := faker.RandomString(seedReasons)
			req := CancelRequest{
				AppointmentID: a.ID,
				RequestedBy:   requester,
				Reason:        &reason,
				At:            a.ScheduledAt.Add(-time.Duration(faker.Number(1, 72)) * time.Hour),
			}
			if _, err := s.svc.CancelAppointment(ctx, req); err != nil {
				return fmt.Errorf("cancel appointment %d: %w", a.ID, err)
			}
			res.Cancellations++
		}
		s.logger.Info().
			Int("appointments", res.Appointments).
			Int("cancellations", res.Cancellations).
			Msg("appointments seeded")
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	s.svc.recordsChanged(ctx)
	return res, nil
}

// seedStatus draws a status with a plausible clinic distribution.
func seedStatus(f *gofakeit.Faker) reporting.Status {
	switch n := f.Number(1, 100); {
	case n <= 60:
		return reporting.StatusAttended
	case n <= 75:
		return reporting.StatusNoShow
	case n <= 90:
		return reporting.StatusCanceled
	case n <= 95:
		return reporting.StatusWaiting
	default:
		return reporting.StatusScheduled
	}
}
